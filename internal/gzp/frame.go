package gzp

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/geom"
)

// Размеры payload
const (
	eyeSampleSize = 8 + 3*8 + 3*8 + 1   // timestamp, origin, direction, valid
	RawFrameSize  = 8 + 3*eyeSampleSize // 179
	OriginSize    = 3 * 3 * 8           // position, forward, up: 72
)

// Смещения в RAW-FRAME
const (
	rawTimestamp = 0
	rawGaze      = 8
	rawLeft      = rawGaze + eyeSampleSize
	rawRight     = rawLeft + eyeSampleSize
)

// EncodeRawFrame собирает пакет RAW-FRAME.
func EncodeRawFrame(f gaze.RawGazeFrame) []byte {
	p := make([]byte, RawFrameSize)
	putFloat(p[rawTimestamp:], f.Timestamp)
	putSample(p[rawGaze:], f.Gaze)
	putSample(p[rawLeft:], f.Left)
	putSample(p[rawRight:], f.Right)
	return EncodePacket(ClassGaze, IDRawFrame, p)
}

// ParseRawFrame разбирает payload RAW-FRAME.
func ParseRawFrame(payload []byte) (gaze.RawGazeFrame, error) {
	if len(payload) < RawFrameSize {
		return gaze.RawGazeFrame{}, fmt.Errorf("gzp: raw frame payload %d bytes, need %d", len(payload), RawFrameSize)
	}
	return gaze.RawGazeFrame{
		Timestamp: getFloat(payload[rawTimestamp:]),
		Gaze:      getSample(payload[rawGaze:]),
		Left:      getSample(payload[rawLeft:]),
		Right:     getSample(payload[rawRight:]),
	}, nil
}

// EncodeOrigin собирает пакет ORIGIN.
func EncodeOrigin(t gaze.Transform) []byte {
	p := make([]byte, OriginSize)
	putVec(p[0:], t.Position)
	putVec(p[24:], t.Forward)
	putVec(p[48:], t.Up)
	return EncodePacket(ClassGaze, IDOrigin, p)
}

// ParseOrigin разбирает payload ORIGIN.
func ParseOrigin(payload []byte) (gaze.Transform, error) {
	if len(payload) < OriginSize {
		return gaze.Transform{}, fmt.Errorf("gzp: origin payload %d bytes, need %d", len(payload), OriginSize)
	}
	return gaze.Transform{
		Position: getVec(payload[0:]),
		Forward:  getVec(payload[24:]),
		Up:       getVec(payload[48:]),
	}, nil
}

// IsRawFrame проверяет class/id пакета.
func (p Packet) IsRawFrame() bool {
	return p.Class == ClassGaze && p.ID == IDRawFrame
}

// IsOrigin проверяет class/id пакета.
func (p Packet) IsOrigin() bool {
	return p.Class == ClassGaze && p.ID == IDOrigin
}

func putSample(b []byte, s gaze.EyeSample) {
	putFloat(b[0:], s.Timestamp)
	putVec(b[8:], s.Origin)
	putVec(b[32:], s.Direction)
	if s.Valid {
		b[56] = 1
	}
}

func getSample(b []byte) gaze.EyeSample {
	return gaze.EyeSample{
		Timestamp: getFloat(b[0:]),
		Origin:    getVec(b[8:]),
		Direction: getVec(b[32:]),
		Valid:     b[56] != 0,
	}
}

func putVec(b []byte, v geom.Vec3) {
	putFloat(b[0:], v.X)
	putFloat(b[8:], v.Y)
	putFloat(b[16:], v.Z)
}

func getVec(b []byte) geom.Vec3 {
	return geom.Vec3{X: getFloat(b[0:]), Y: getFloat(b[8:]), Z: getFloat(b[16:])}
}

func putFloat(b []byte, f float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(f))
}

func getFloat(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
