package worker

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/attribution"
	"github.com/BarkinBalci/attribution-service/internal/platform"
	"github.com/BarkinBalci/attribution-service/internal/queue"
	"github.com/BarkinBalci/attribution-service/internal/repository"
)

// Worker orchestrates the job pipeline: receive, parse, run.
type Worker struct {
	receiver *Receiver
	parser   *ParserStage
	runner   *Runner
}

// NewWorker creates a new worker with a pipeline architecture
func NewWorker(
	jobConsumer queue.JobConsumer,
	batch *attribution.BatchProcessor,
	platforms *platform.Registry,
	spend repository.SpendWriter,
	log *zap.Logger,
) *Worker {
	receiver := NewReceiver(jobConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		BufferSize:      100,
	}, log)

	parser := NewParserStage(jobConsumer, NewJSONJobParser(), log)
	runner := NewRunner(batch, platforms, spend, log)

	return &Worker{
		receiver: receiver,
		parser:   parser,
		runner:   runner,
	}
}

// Start begins the worker pipeline and blocks until every stage drains.
func (w *Worker) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 100)
	envelopeChan := make(chan *Envelope, 100)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		w.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		w.parser.Start(ctx, messageChan, envelopeChan)
	}()

	go func() {
		defer wg.Done()
		w.runner.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
