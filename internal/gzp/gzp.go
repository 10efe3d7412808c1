// Package gzp — бинарный протокол пакетов взгляда (gaze packet): кадрирование как у UBX
// (sync, class, id, длина LE, payload, контрольная сумма Флетчера по class..payload).
// Используется мостами вендорских трекеров (serial) и файлами записи (replay).
package gzp

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Sync bytes ("GZ")
const (
	Sync1 = 0x47
	Sync2 = 0x5A
)

// Классы и ID сообщений
const (
	ClassGaze  = 0x01
	IDRawFrame = 0x01 // RAW-FRAME: сырой кадр трекера
	IDOrigin   = 0x02 // ORIGIN: поза начала координат трекера
)

// HeaderSize — sync(2) + class + id + length(2)
const HeaderSize = 6

// MaxPayload — предел длины payload при чтении; больше — мусор в потоке.
const MaxPayload = 1024

var (
	// ErrChecksum — контрольная сумма пакета не совпала.
	ErrChecksum = errors.New("gzp: checksum mismatch")
	// ErrTooLong — заявленная длина payload превышает MaxPayload.
	ErrTooLong = errors.New("gzp: payload too long")
	// ErrNoData — чтение истекло по таймауту без данных; поток не закончен.
	ErrNoData = errors.New("gzp: no data before read timeout")
)

// Header — заголовок пакета
type Header struct {
	Class  uint8
	ID     uint8
	Length uint16
}

// Packet — разобранный пакет
type Packet struct {
	Header
	Payload []byte
}

// Checksum вычисляет контрольную сумму (без sync bytes)
func Checksum(data []byte) (ckA, ckB uint8) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// EncodePacket собирает полный пакет: header + payload + checksum
func EncodePacket(class, id uint8, payload []byte) []byte {
	buf := make([]byte, 0, HeaderSize+len(payload)+2)
	buf = append(buf, Sync1, Sync2, class, id)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	ckA, ckB := Checksum(buf[2:])
	return append(buf, ckA, ckB)
}

// ParseHeader парсит заголовок из буфера (минимум HeaderSize байт)
func ParseHeader(buf []byte) (h Header, ok bool) {
	if len(buf) < HeaderSize || buf[0] != Sync1 || buf[1] != Sync2 {
		return Header{}, false
	}
	h.Class = buf[2]
	h.ID = buf[3]
	h.Length = binary.LittleEndian.Uint16(buf[4:6])
	return h, true
}

// VerifyChecksum проверяет контрольную сумму пакета (header + payload + 2 байта checksum)
func VerifyChecksum(packet []byte) bool {
	if len(packet) < HeaderSize+2 {
		return false
	}
	ckA, ckB := Checksum(packet[2 : len(packet)-2])
	return packet[len(packet)-2] == ckA && packet[len(packet)-1] == ckB
}

// Decode разбирает один полный пакет из packet.
func Decode(packet []byte) (Packet, error) {
	h, ok := ParseHeader(packet)
	if !ok {
		return Packet{}, fmt.Errorf("gzp: bad header")
	}
	if len(packet) != HeaderSize+int(h.Length)+2 {
		return Packet{}, fmt.Errorf("gzp: length %d, header says %d", len(packet)-HeaderSize-2, h.Length)
	}
	if !VerifyChecksum(packet) {
		return Packet{}, ErrChecksum
	}
	return Packet{Header: h, Payload: packet[HeaderSize : len(packet)-2]}, nil
}

// Reader читает пакеты из потока, пропуская байты до sync.
type Reader struct {
	r *bufio.Reader
}

// NewReader оборачивает r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next читает следующий пакет. На пакете с неверной суммой возвращает ErrChecksum;
// поток остаётся выровненным, следующий вызов продолжит поиск sync.
func (r *Reader) Next() (Packet, error) {
	var prev byte
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			return Packet{}, err
		}
		if prev == Sync1 && b == Sync2 {
			break
		}
		prev = b
	}
	// Оставшиеся 4 байта заголовка (class, id, length[2])
	rest := make([]byte, 4)
	if _, err := io.ReadFull(r.r, rest); err != nil {
		return Packet{}, unexpected(err)
	}
	length := binary.LittleEndian.Uint16(rest[2:4])
	if length > MaxPayload {
		return Packet{}, fmt.Errorf("%w: %d", ErrTooLong, length)
	}
	buf := make([]byte, HeaderSize+int(length)+2)
	buf[0], buf[1] = Sync1, Sync2
	copy(buf[2:], rest)
	if _, err := io.ReadFull(r.r, buf[HeaderSize:]); err != nil {
		return Packet{}, unexpected(err)
	}
	return Decode(buf)
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
