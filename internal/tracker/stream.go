package tracker

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/gzp"
	"github.com/shiwa/gaze-error-injector/internal/logger"
)

// Таймауты потока
const (
	serialReadTimeout = 200 * time.Millisecond
	staleAfter        = time.Second
	retryDelay        = 100 * time.Millisecond
	maxInstantIdle    = 64
)

// PacketSource — источник пакетов gzp (последовательный порт, pipe в тестах)
type PacketSource interface {
	ReadPacket() (gzp.Packet, error)
	Close() error
}

// Stream — трекер, читающий пакеты RAW-FRAME/ORIGIN в фоне. Хранится только последний кадр;
// GetGazeData отдаёт его один раз и не блокируется.
type Stream struct {
	name string
	kind Kind
	open func() (PacketSource, error)
	now  func() time.Time

	mu        sync.Mutex
	src       PacketSource
	frame     gaze.RawGazeFrame
	fresh     bool
	transform gaze.Transform
	lastRx    time.Time
	running   bool
	closed    bool
	wg        sync.WaitGroup
}

// NewStream создаёт трекер поверх open. open вызывается в Initialize.
func NewStream(name string, kind Kind, open func() (PacketSource, error)) *Stream {
	return &Stream{
		name:      name,
		kind:      kind,
		open:      open,
		now:       time.Now,
		transform: gaze.DefaultTransform(),
	}
}

// NewSerial создаёт трекер по последовательному порту (serial и вендорские мосты)
func NewSerial(kind Kind, device string, baud int) *Stream {
	return NewStream(fmt.Sprintf("%s:%s", kind, device), kind, func() (PacketSource, error) {
		return gzp.Open(device, baud, serialReadTimeout)
	})
}

// ReaderSource адаптирует поток байт к PacketSource.
func ReaderSource(rc io.ReadCloser) PacketSource {
	return &readerSource{r: gzp.NewReader(rc), c: rc}
}

type readerSource struct {
	r *gzp.Reader
	c io.Closer
}

func (s *readerSource) ReadPacket() (gzp.Packet, error) { return s.r.Next() }
func (s *readerSource) Close() error                    { return s.c.Close() }

// Name возвращает имя трекера
func (s *Stream) Name() string {
	return s.name
}

// Kind возвращает вид трекера
func (s *Stream) Kind() Kind {
	return s.kind
}

// Initialize открывает источник и запускает чтение
func (s *Stream) Initialize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return true
	}
	if s.closed {
		return false
	}
	src, err := s.open()
	if err != nil {
		logger.Error("%s: %v", s.name, err)
		return false
	}
	s.src = src
	s.running = true
	s.wg.Add(1)
	go s.readLoop(src)
	return true
}

func (s *Stream) readLoop(src PacketSource) {
	defer s.wg.Done()
	idle := 0
	for {
		start := time.Now()
		p, err := src.ReadPacket()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			switch {
			case errors.Is(err, gzp.ErrChecksum):
				continue
			case errors.Is(err, gzp.ErrNoData):
				// порт отвечает мгновенно без данных подряд — устройство отключено
				if time.Since(start) < serialReadTimeout/4 {
					idle++
				} else {
					idle = 0
				}
				if idle < maxInstantIdle {
					continue
				}
				logger.Info("%s: port hung up", s.name)
				s.stop(src)
				return
			case errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe):
				logger.Info("%s: stream ended", s.name)
				s.stop(src)
				return
			}
			time.Sleep(retryDelay)
			continue
		}
		idle = 0
		s.handle(p)
	}
}

// stop закрывает источник, завершившийся сам; следующий Initialize откроет новый.
func (s *Stream) stop(src PacketSource) {
	s.mu.Lock()
	if s.closed || s.src != src {
		s.mu.Unlock()
		return
	}
	s.src = nil
	s.running = false
	s.mu.Unlock()
	if err := src.Close(); err != nil {
		logger.Error("%s: close: %v", s.name, err)
	}
}

func (s *Stream) handle(p gzp.Packet) {
	switch {
	case p.IsRawFrame():
		f, err := gzp.ParseRawFrame(p.Payload)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.frame = f
		s.fresh = true
		s.lastRx = s.now()
		s.mu.Unlock()
	case p.IsOrigin():
		t, err := gzp.ParseOrigin(p.Payload)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.transform = t
		s.mu.Unlock()
	}
}

// Status: Live — кадр приходил не позже staleAfter назад; Stale — чтение идёт, но данных нет.
func (s *Stream) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return StatusUnavailable
	}
	if s.lastRx.IsZero() || s.now().Sub(s.lastRx) > staleAfter {
		return StatusStale
	}
	return StatusLive
}

// GetGazeData возвращает последний принятый кадр, если он ещё не был отдан
func (s *Stream) GetGazeData() (gaze.RawGazeFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fresh {
		return gaze.RawGazeFrame{}, false
	}
	s.fresh = false
	return s.frame, true
}

// GetOriginTransform возвращает последнюю принятую позу (по умолчанию DefaultTransform)
func (s *Stream) GetOriginTransform() gaze.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform
}

// Close закрывает источник и дожидается завершения чтения
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.running = false
	src := s.src
	s.src = nil
	s.mu.Unlock()
	var err error
	if src != nil {
		err = src.Close()
	}
	s.wg.Wait()
	return err
}
