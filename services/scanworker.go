package services

import (
	"context"
	"log"
	"sync"
	"time"

	"townreq-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScanWorker drains the scan queue and resolves pending attachments to
// their terminal verdict. The claim step is an atomic pending-only handoff
// in the store, so even with several workers (or several processes) at most
// one scan is active per attachment and the terminal transition happens
// exactly once.
type ScanWorker struct {
	store      Store
	queue      ScanQueue
	classifier Classifier
	notifier   Notifier
	workers    int
}

func NewScanWorker(store Store, queue ScanQueue, classifier Classifier, notifier Notifier, workers int) *ScanWorker {
	if workers <= 0 {
		workers = 1
	}
	return &ScanWorker{
		store:      store,
		queue:      queue,
		classifier: classifier,
		notifier:   notifier,
		workers:    workers,
	}
}

// Run consumes the queue until ctx is cancelled. It blocks; callers start
// it in a goroutine and cancel ctx to shut down.
func (w *ScanWorker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *ScanWorker) loop(ctx context.Context) {
	for {
		id, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Scan queue dequeue failed: %v", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		w.scanOne(ctx, id)
	}
}

func (w *ScanWorker) scanOne(ctx context.Context, id primitive.ObjectID) {
	att, err := w.store.GetAttachment(ctx, id)
	if err != nil {
		log.Printf("Scan lookup failed for %s: %v", id.Hex(), err)
		return
	}
	if att == nil || att.ScanState != models.ScanPending {
		// Already resolved, or gone. Nothing to do.
		return
	}

	claimed, err := w.store.ClaimScan(ctx, id)
	if err != nil {
		log.Printf("Scan claim failed for %s: %v", id.Hex(), err)
		return
	}
	if !claimed {
		// Another worker holds it.
		return
	}

	verdict, detail, err := w.classifier.Classify(ctx, att.StorageKey)
	if err != nil {
		// Back to the unclaimed pending pool; the attachment stays gated
		// and a long-pending state is reported upstream, never guessed.
		log.Printf("Classifier failed for %s: %v", id.Hex(), err)
		if _, rerr := w.store.ReleaseScan(ctx, id); rerr != nil {
			log.Printf("Scan release failed for %s: %v", id.Hex(), rerr)
		}
		return
	}
	if !verdict.Terminal() {
		log.Printf("Classifier returned non-terminal verdict %q for %s", verdict, id.Hex())
		if _, rerr := w.store.ReleaseScan(ctx, id); rerr != nil {
			log.Printf("Scan release failed for %s: %v", id.Hex(), rerr)
		}
		return
	}

	ok, err := w.store.ResolveScan(ctx, id, verdict, detail)
	if err != nil {
		log.Printf("Scan resolve failed for %s: %v", id.Hex(), err)
		return
	}
	if !ok {
		return
	}

	resolved, err := w.store.GetAttachment(ctx, id)
	if err != nil || resolved == nil {
		return
	}
	w.notifier.ScanResolved(resolved)
}
