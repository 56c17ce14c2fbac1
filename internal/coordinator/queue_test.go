package coordinator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/meridian-trading/meridian/internal/types"
)

type QueueTestSuite struct {
	suite.Suite
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueTestSuite))
}

func (suite *QueueTestSuite) TestDeliversInOrder() {
	q := newQueue()

	for i := 0; i < 100; i++ {
		suite.Require().NoError(q.Publish(TradeTickMsg{Tick: types.TradeTick{Size: float64(i)}}))
	}
	q.Close()

	var got []float64

	q.Run(context.Background(), func(msg Message) {
		got = append(got, msg.(TradeTickMsg).Tick.Size)
	})

	suite.Require().Len(got, 100)
	for i, v := range got {
		suite.Equal(float64(i), v)
	}
}

func (suite *QueueTestSuite) TestPublishNeverBlocks() {
	q := newQueue()

	// no consumer running; a bounded channel would deadlock here
	for i := 0; i < 10000; i++ {
		suite.Require().NoError(q.Publish(CleanMsg{}))
	}
}

func (suite *QueueTestSuite) TestPublishAfterClose() {
	q := newQueue()
	q.Close()

	suite.Error(q.Publish(CleanMsg{}))
}

func (suite *QueueTestSuite) TestConcurrentProducers() {
	q := newQueue()

	const producers = 8

	const perProducer = 250

	var wg sync.WaitGroup

	for p := 0; p < producers; p++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < perProducer; i++ {
				_ = q.Publish(CleanMsg{})
			}
		}()
	}

	wg.Wait()
	q.Close()

	count := 0

	q.Run(context.Background(), func(Message) {
		count++
	})

	suite.Equal(producers*perProducer, count)
}

func (suite *QueueTestSuite) TestRunStopsOnContextCancel() {
	q := newQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})

	go func() {
		q.Run(ctx, func(Message) {})
		close(done)
	}()

	<-done
}
