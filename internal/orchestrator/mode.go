package orchestrator

// Mode selects the input and result surfaces
type Mode string

const (
	ModeSingle Mode = "single"
	ModeBatch  Mode = "batch"
)

func modeOf(isBatch bool) Mode {
	if isBatch {
		return ModeBatch
	}
	return ModeSingle
}

func idleLabel(m Mode) string {
	if m == ModeBatch {
		return BatchLabel
	}
	return SingleLabel
}

// call tracks one mode's in-flight request and its transient button label
type call struct {
	mode    Mode
	loading bool
	label   string
	timer   Timer
	// gen invalidates label timers that fire after their call ended
	gen uint64
}

func newCall(m Mode) *call {
	return &call{mode: m, label: idleLabel(m)}
}

// reset stops the pending label timer and restores the idle label
func (c *call) reset() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	c.loading = false
	c.label = idleLabel(c.mode)
}

// Mode returns the active mode
func (o *Orchestrator) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return modeOf(o.isBatch)
}

// ToggleMode flips between single and batch mode and clears both results
// and any shown answer. The vague-input notice, history and selected history
// id are kept. Toggling while either mode is loading returns ErrBusy.
func (o *Orchestrator) ToggleMode() (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return View{}, ErrClosed
	}
	if o.single.loading || o.batch.loading {
		return View{}, ErrBusy
	}

	o.isBatch = !o.isBatch
	o.clearAnswer()

	o.log.Debug("Mode toggled", "mode", modeOf(o.isBatch))
	return o.snapshot(), nil
}

// clearAnswer drops both results and whatever the error and warning channels show
func (o *Orchestrator) clearAnswer() {
	o.singleResult = nil
	o.batchResult = nil
	o.failure = nil
	o.warning = ""
}
