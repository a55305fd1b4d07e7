// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package gnmiserver is the engine's consumer-facing export surface
// (spec.md §6 "gNMI server emits snapshots"): a minimal gRPC Get/
// Subscribe pair over the tick's health snapshot. Full openconfig gNMI
// (path-compressed protobuf paths, ON_CHANGE/SAMPLE subscription
// modes) is explicitly out of scope (spec.md §1, "the gNMI server
// surface ... out of scope, specified only by the interface the core
// exposes") — this package *is* that interface, a small real gRPC
// service rather than a stub, hand-wired against grpc.ServiceDesc in
// place of a .proto/protoc-gen-go-grpc pipeline this build has no way
// to invoke (see DESIGN.md).
package gnmiserver

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/edeline-labs/assurance-agent/internal/engine"
	"github.com/edeline-labs/assurance-agent/internal/health"
)

// GnmiServer is the service interface RegisterServer dispatches to,
// shaped the way protoc-gen-go-grpc's generated <Service>Server
// interface would be.
type GnmiServer interface {
	// Get returns the most recent tick snapshot (scores + positive
	// symptoms) as a structpb.Struct tree.
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Subscribe streams the current snapshot at a fixed poll interval
	// until the client disconnects.
	Subscribe(*structpb.Struct, Gnmi_SubscribeServer) error
}

// Gnmi_SubscribeServer is the streaming handle Subscribe pushes
// updates through, named the way generated gRPC server-stream handles
// are (<Service>_<Method>Server).
type Gnmi_SubscribeServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type gnmiSubscribeServer struct {
	grpc.ServerStream
}

func (x *gnmiSubscribeServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// Server implements GnmiServer over one Engine.
type Server struct {
	Engine *engine.Engine
	// PollInterval governs how often Subscribe re-checks the engine's
	// snapshot for streaming; it is independent of the engine's own
	// tick period.
	PollInterval time.Duration
}

// Get ignores its request (no path filtering in this minimal surface)
// and returns the whole current snapshot.
func (s *Server) Get(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return snapshotToStruct(s.Engine.Snapshot())
}

// Subscribe streams a snapshot every PollInterval (default 1s) until
// the client cancels or the stream errors.
func (s *Server) Subscribe(_ *structpb.Struct, stream Gnmi_SubscribeServer) error {
	interval := s.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case <-ticker.C:
			msg, err := snapshotToStruct(s.Engine.Snapshot())
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func snapshotToStruct(res health.Result) (*structpb.Struct, error) {
	scores := make(map[string]any, len(res.Scores))
	for fullname, score := range res.Scores {
		scores[fullname] = score
	}
	symptoms := make([]any, 0, len(res.Positives))
	for _, sym := range res.Positives {
		symptoms = append(symptoms, map[string]any{
			"rule":      sym.Rule.Name,
			"severity":  sym.Rule.Severity.String(),
			"args":      toAnySlice(sym.Args),
			"timestamp": sym.Timestamp,
		})
	}
	return structpb.NewStruct(map[string]any{
		"scores":            scores,
		"positive_symptoms": symptoms,
	})
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// RegisterServer registers s against gs using the hand-built
// grpc.ServiceDesc below — the same registration shape a generated
// RegisterGnmiServer function would produce.
func RegisterServer(gs *grpc.Server, s GnmiServer) {
	gs.RegisterService(&serviceDesc, s)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "assurance.Gnmi",
	HandlerType: (*GnmiServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Get",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(structpb.Struct)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(GnmiServer).Get(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/assurance.Gnmi/Get"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(GnmiServer).Get(ctx, req.(*structpb.Struct))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(structpb.Struct)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(GnmiServer).Subscribe(in, &gnmiSubscribeServer{stream})
			},
		},
	},
	Metadata: "gnmiserver.proto",
}
