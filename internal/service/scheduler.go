package service

import (
	"log"
	"time"
)

// Pruner periodically drops diagnostics older than the retention window
type Pruner struct {
	diag      *Diagnostics
	retention time.Duration
	interval  time.Duration
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewPruner creates a new Pruner
func NewPruner(diag *Diagnostics, retention, interval time.Duration) *Pruner {
	return &Pruner{
		diag:      diag,
		retention: retention,
		interval:  interval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start runs one prune immediately and then every interval
func (p *Pruner) Start() {
	go p.run()
	log.Printf("Diagnostics pruner started - retention %v, every %v", p.retention, p.interval)
}

// Stop stops the pruner and waits for it to exit
func (p *Pruner) Stop() {
	close(p.stopChan)
	<-p.doneChan
}

func (p *Pruner) run() {
	defer close(p.doneChan)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.pruneOnce()

		select {
		case <-ticker.C:
		case <-p.stopChan:
			return
		}
	}
}

func (p *Pruner) pruneOnce() {
	n, err := p.diag.Prune(p.retention)
	if err != nil {
		log.Printf("Failed to prune diagnostics: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Pruned %d diagnostic records", n)
	}
}
