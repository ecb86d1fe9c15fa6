package engine

import (
	"context"
	"errors"
	"io"

	"github.com/bamsammich/rdu/internal/transport"
)

// eventLoop runs every metadata and listing call as its own operation and
// reacts to completions from a single driver loop. Only the driver touches
// the running total, the wait-set counters and the backlog, so none of them
// need locking. Memory follows the number of in-flight operations rather
// than tree depth.
type eventLoop struct {
	src   tracked
	limit int // max in-flight operations; 0 = uncapped
}

type opKind int

const (
	opResolve opKind = iota
	opList
)

// op is one pending unit of work. For opList, lister is nil until the
// directory has been opened; afterwards each op reads one more child.
type op struct {
	lister transport.Lister
	path   string
	kind   opKind
}

type resolveDone struct {
	err   error
	entry transport.Entry
}

type listDone struct {
	err    error
	lister transport.Lister // open and positioned after child; nil once exhausted
	dir    string
	child  string
}

func (l *eventLoop) Total(ctx context.Context, root string) (uint64, error) {
	ctx, cancel := context.WithCancel(ctx)
	d := &driver{
		ctx:      ctx,
		src:      l.src,
		limit:    l.limit,
		resolved: make(chan resolveDone),
		listed:   make(chan listDone),
	}
	defer func() {
		cancel()
		d.closeBacklog()
	}()

	d.submit(op{kind: opResolve, path: root})
	return d.loop()
}

type driver struct {
	ctx      context.Context
	resolved chan resolveDone
	listed   chan listDone
	src      tracked

	// Operations waiting for an in-flight slot. Continuations of open
	// listings go first so directories are drained and closed before new
	// ones are opened.
	resume []op
	fresh  []op

	limit          int
	pendingResolve int // resolve wait-set
	pendingList    int // enumerate wait-set
	total          uint64
}

func (d *driver) loop() (uint64, error) {
	for d.pendingResolve > 0 || d.pendingList > 0 {
		select {
		case r := <-d.resolved:
			d.pendingResolve--
			if r.err != nil {
				return 0, r.err
			}
			if r.entry.Kind == transport.KindDir {
				d.submit(op{kind: opList, path: r.entry.Path})
			} else {
				d.total += contribution(r.entry)
			}

		case r := <-d.listed:
			d.pendingList--
			if r.err != nil {
				return 0, r.err
			}
			if r.lister != nil {
				d.submit(op{kind: opList, path: r.dir, lister: r.lister})
				d.submit(op{kind: opResolve, path: r.child})
			}

		case <-d.ctx.Done():
			return 0, d.ctx.Err()
		}
		d.dispatch()
	}
	return d.total, nil
}

func (d *driver) inFlight() int {
	return d.pendingResolve + d.pendingList
}

// submit starts o now if a slot is free, otherwise parks it in the backlog.
func (d *driver) submit(o op) {
	if d.limit > 0 && d.inFlight() >= d.limit {
		if o.lister != nil {
			d.resume = append(d.resume, o)
		} else {
			d.fresh = append(d.fresh, o)
		}
		return
	}
	d.start(o)
}

// dispatch moves backlog entries into free slots.
func (d *driver) dispatch() {
	for d.limit <= 0 || d.inFlight() < d.limit {
		switch {
		case len(d.resume) > 0:
			o := d.resume[0]
			d.resume = d.resume[1:]
			d.start(o)
		case len(d.fresh) > 0:
			o := d.fresh[len(d.fresh)-1]
			d.fresh = d.fresh[:len(d.fresh)-1]
			d.start(o)
		default:
			return
		}
	}
}

func (d *driver) start(o op) {
	ctx := d.ctx
	switch o.kind {
	case opResolve:
		d.pendingResolve++
		go func() {
			e, err := d.src.resolve(ctx, o.path)
			select {
			case d.resolved <- resolveDone{entry: e, err: err}:
			case <-ctx.Done():
			}
		}()
	case opList:
		d.pendingList++
		go func() {
			r := d.enumerate(ctx, o)
			select {
			case d.listed <- r:
			case <-ctx.Done():
				// The driver is gone; nobody will resume this listing.
				if r.lister != nil {
					r.lister.Close()
				}
			}
		}()
	}
}

// enumerate opens the directory if needed and reads one child. The lister
// is closed here on exhaustion or failure.
func (d *driver) enumerate(ctx context.Context, o op) listDone {
	lister := o.lister
	if lister == nil {
		l, err := d.src.list(ctx, o.path)
		if err != nil {
			return listDone{dir: o.path, err: err}
		}
		lister = l
	}

	child, err := d.src.next(ctx, lister)
	if err != nil {
		lister.Close()
		if errors.Is(err, io.EOF) {
			return listDone{dir: o.path}
		}
		return listDone{dir: o.path, err: err}
	}
	return listDone{dir: o.path, lister: lister, child: child}
}

// closeBacklog releases listers parked in the backlog when the loop exits
// early.
func (d *driver) closeBacklog() {
	for _, o := range d.resume {
		if o.lister != nil {
			o.lister.Close()
		}
	}
	d.resume, d.fresh = nil, nil
}
