package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
)

// scriptedStream fails its first read session after one tick, then serves a
// healthy session. Later sessions stay open until the context ends.
type scriptedStream struct {
	mu         sync.Mutex
	sessions   int
	reconnects int
	connected  bool
}

func (s *scriptedStream) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *scriptedStream) Subscribe(context.Context) error { return nil }

func (s *scriptedStream) Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error) {
	s.mu.Lock()
	session := s.sessions
	s.sessions++
	s.mu.Unlock()

	ticks := make(chan *models.PriceTick, 4)
	errs := make(chan error, 1)
	go func() {
		defer close(ticks)
		defer close(errs)
		if session == 0 {
			ticks <- &models.PriceTick{CommodityID: "wheat", Timestamp: 1700000000, Price: 6.5}
			errs <- errors.New("feed dropped")
			return
		}
		ticks <- &models.PriceTick{CommodityID: "corn", Timestamp: 1700000001, Price: 4.2}
		<-ctx.Done()
	}()
	return ticks, errs
}

func (s *scriptedStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	s.connected = true
	return nil
}

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *scriptedStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *scriptedStream) reconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

func TestCollectorResumesReadingAfterReconnect(t *testing.T) {
	stream := &scriptedStream{}
	pub := &recordingPublisher{}
	proc := NewPriceProcessor(pub, &recordingTickStorage{}, newRecordingMetrics(), "kafka")
	collector := NewPriceCollector(stream, proc, newRecordingMetrics(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := collector.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// The tick from the post-reconnect session proves ingestion recovered.
	deadline := time.Now().Add(2 * time.Second)
	for {
		pub.mu.Lock()
		var gotCorn bool
		for _, tick := range pub.published {
			if tick.CommodityID == "corn" {
				gotCorn = true
			}
		}
		pub.mu.Unlock()
		if gotCorn {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no tick processed after reconnect, published %d", len(pub.published))
		}
		time.Sleep(5 * time.Millisecond)
	}

	if n := stream.reconnectCount(); n != 1 {
		t.Fatalf("reconnects = %d, want 1", n)
	}

	// Cancellation ends the loop without further reconnect attempts.
	cancel()
	time.Sleep(50 * time.Millisecond)
	if n := stream.reconnectCount(); n != 1 {
		t.Fatalf("reconnects after cancel = %d, want 1", n)
	}
}
