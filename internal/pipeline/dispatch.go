package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Dispatch runs the pipeline for an import in a supervised background
// goroutine and returns immediately. No caller waits on the task, so the
// supervision boundary is a hard requirement: any error or panic is
// intercepted and written onto the import record, never allowed to escape.
func (o *Orchestrator) Dispatch(id uuid.UUID) {
	go func() {
		// The pipeline outlives the request that triggered it.
		ctx := context.Background()

		defer func() {
			if r := recover(); r != nil {
				log.Printf("import %s: pipeline panic: %v", id, r)
				if _, err := o.imports.MarkFailed(ctx, id, fmt.Sprintf("internal error: %v", r), false); err != nil {
					log.Printf("import %s: failed to record panic: %v", id, err)
				}
			}
		}()

		if err := o.Run(ctx, id); err != nil {
			log.Printf("import %s: pipeline error: %v", id, err)
			if _, ferr := o.imports.MarkFailed(ctx, id, err.Error(), false); ferr != nil {
				log.Printf("import %s: failed to record error: %v", id, ferr)
			}
		}
	}()
}
