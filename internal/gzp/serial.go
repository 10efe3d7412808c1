package gzp

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port — обёртка над последовательным портом для gzp
type Port struct {
	port   *serial.Port
	reader *Reader
}

// Open открывает последовательный порт. readTimeout > 0 — таймаут одного чтения,
// чтобы читатель не зависал на молчащем устройстве.
func Open(device string, baud int, readTimeout time.Duration) (*Port, error) {
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readTimeout,
	}
	p, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", device, err)
	}
	return &Port{port: p, reader: NewReader(timeoutReader{p})}, nil
}

// timeoutReader: при VMIN=0/VTIME порт на истёкшем чтении отдаёт (0, io.EOF).
// Это не конец потока, а ErrNoData.
type timeoutReader struct {
	r io.Reader
}

func (t timeoutReader) Read(b []byte) (int, error) {
	n, err := t.r.Read(b)
	if n == 0 && err == io.EOF {
		return 0, ErrNoData
	}
	return n, err
}

// ReadPacket читает один пакет. ErrNoData — за таймаут чтения данных не пришло.
func (p *Port) ReadPacket() (Packet, error) {
	return p.reader.Next()
}

// Close закрывает порт
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}
