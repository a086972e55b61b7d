// Package diag ties code sections to trace entries.
//
// A Tracer begins sections, logs entries inside them and routes every entry
// through a delivery gate to the sink registered for the entry's key:
//
//	func (w *Worker) Run(job Job) error {
//		sec := tracer.BeginMethodScope(resolve.KeyOf[Worker](), diag.WithPayload(job.ID))
//		defer sec.End()
//
//		sec.Infof("processing %d items", len(job.Items))
//		...
//	}
//
// Beginning a section emits a start entry; End emits a stop entry carrying
// the elapsed time and restores the section that was current before. Entries
// logged on the Tracer itself are anchored to the current section of the
// calling goroutine, or to a synthetic section keyed InternalKey when none
// is active.
//
// A new Tracer starts with delivery locked: entries are queued until Ready
// is called, then delivered in emission order. Logging never fails or panics
// because of tracing internals; only a nil message producer is reported, as
// ErrNilMessage.
package diag
