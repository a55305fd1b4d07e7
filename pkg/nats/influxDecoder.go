// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nats

import (
	"time"

	influx "github.com/influxdata/line-protocol/v2/lineprotocol"
)

// Point is a decoded InfluxDB line-protocol point: one measurement, its
// tag set, its field set, and a timestamp.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Time        time.Time
}

// DecodePoint decodes a single line-protocol point from d.
func DecodePoint(d *influx.Decoder) (Point, error) {
	measurement, err := d.Measurement()
	if err != nil {
		return Point{}, err
	}

	tags := make(map[string]string)
	for {
		key, value, err := d.NextTag()
		if err != nil {
			return Point{}, err
		}
		if key == nil {
			break
		}
		tags[string(key)] = string(value)
	}

	fields := make(map[string]interface{})
	for {
		key, value, err := d.NextField()
		if err != nil {
			return Point{}, err
		}
		if key == nil {
			break
		}
		fields[string(key)] = value.Interface()
	}

	t, err := d.Time(influx.Nanosecond, time.Time{})
	if err != nil {
		return Point{}, err
	}

	return Point{
		Measurement: string(measurement),
		Tags:        tags,
		Fields:      fields,
		Time:        t,
	}, nil
}

// EncodePoint appends p to enc as one line-protocol line. Field values
// must be one of the types influx.NewValue accepts (int64, uint64,
// float64, bool, string).
func EncodePoint(enc *influx.Encoder, p Point) error {
	enc.StartLine(p.Measurement)
	for k, v := range p.Tags {
		enc.AddTag(k, v)
	}
	for k, v := range p.Fields {
		lv, ok := influx.NewValue(v)
		if !ok {
			continue
		}
		enc.AddField(k, lv)
	}
	enc.EndLine(p.Time)
	return enc.Err()
}
