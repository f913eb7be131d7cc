// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"
)

// NMEASource reads a marine heading sensor over serial. ROT sentences
// become gyro Z readings and HDG/HDM/HDT headings become a horizontal
// magnetometer vector of FieldStrength µT.
type NMEASource struct {
	PortName      string
	BaudRate      int
	FieldStrength float64
	Logger        *zap.Logger
}

func (s *NMEASource) Run(ctx context.Context, out chan<- Reading) error {
	serialOpts := serial.OpenOptions{
		PortName:              s.PortName,
		BaudRate:              uint(s.BaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("nmea source: open %s: %w", s.PortName, err)
	}
	log := s.logger()
	log.Info("nmea source: serial port opened", zap.String("port", s.PortName), zap.Int("baud", s.BaudRate))

	// Closing the port is the only way to unblock a pending read.
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer func() {
		if stop() {
			port.Close()
		}
	}()

	err = s.read(ctx, port, out, time.Now)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *NMEASource) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// read parses sentences from r until EOF, a read error or ctx is done.
func (s *NMEASource) read(ctx context.Context, r io.Reader, out chan<- Reading, now func() time.Time) error {
	log := s.logger()
	reader := bufio.NewReader(r)

	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "$") {
			sentence, perr := nmea.Parse(line)
			if perr != nil {
				log.Debug("nmea source: parse error", zap.String("line", line), zap.Error(perr))
			} else if reading, ok := s.convert(sentence, now()); ok {
				if err := emit(ctx, out, reading); err != nil {
					return err
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("nmea source: read: %w", err)
		}
	}
}

// convert maps a parsed sentence to a reading. Sentences without
// orientation content report false.
func (s *NMEASource) convert(sentence nmea.Sentence, at time.Time) (Reading, bool) {
	switch sentence.DataType() {
	case nmea.TypeROT:
		m := sentence.(nmea.ROT)
		if !m.Valid {
			return Reading{}, false
		}
		// ROT is degrees per minute, positive to starboard (clockwise from
		// above). Gyro Z is counter-clockwise positive.
		z := -m.RateOfTurn * math.Pi / 180 / 60
		return Reading{Kind: Gyro, Z: z, At: at}, true

	case nmea.TypeHDT:
		m := sentence.(nmea.HDT)
		return s.headingReading(m.Heading, at), true

	case nmea.TypeHDG:
		m := sentence.(nmea.HDG)
		return s.headingReading(m.Heading, at), true

	case nmea.TypeHDM:
		m := sentence.(nmea.HDM)
		return s.headingReading(m.Heading, at), true
	}
	return Reading{}, false
}

// headingReading points the field at north in device axes (x right,
// y forward) for a bow heading in degrees clockwise from north.
func (s *NMEASource) headingReading(headingDeg float64, at time.Time) Reading {
	sin, cos := math.Sincos(headingDeg * math.Pi / 180)
	return Reading{
		Kind: Mag,
		X:    -s.FieldStrength * sin,
		Y:    s.FieldStrength * cos,
		At:   at,
	}
}
