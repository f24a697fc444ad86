// Package provisioner crée les dossiers parents d'un chemin avant l'écriture d'un fichier.
//
// Le provisioning est consultatif : l'écriture du fichier crée elle-même les
// préfixes manquants. Les dossiers sont matérialisés pour rester visibles dans
// les interfaces des object stores qui masquent les préfixes vides.
package provisioner

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"chantier-rapports/pkg/storage"
)

// Status résume le résultat d'un provisioning
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Outcome est le résultat observable d'EnsureFolders, jamais une erreur
type Outcome struct {
	Status Status   `json:"status"`
	Reason string   `json:"reason,omitempty"`
	Failed []string `json:"failed,omitempty"`
}

// OK indique que tous les dossiers ont été provisionnés
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// RetryPolicy décrit un backoff exponentiel borné
type RetryPolicy struct {
	Attempts   int           `env:"ATTEMPTS" env-default:"3"`
	BaseDelay  time.Duration `env:"BASE_DELAY" env-default:"1s"`
	Multiplier float64       `env:"MULTIPLIER" env-default:"2"`
}

// DefaultRetryPolicy : 3 tentatives, 1s puis 2s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Second, Multiplier: 2}
}

// NewBackOff construit le backoff correspondant à la politique, sans jitter
func (p RetryPolicy) NewBackOff(ctx context.Context) backoff.BackOffContext {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	// Le nombre de tentatives et le contexte bornent la durée
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Config regroupe la politique de retry et le timeout global
type Config struct {
	Retry   RetryPolicy   `env-prefix:"PROVISION_"`
	Timeout time.Duration `env:"PROVISION_TIMEOUT" env-default:"5s"`
}

// DefaultConfig retourne la configuration par défaut
func DefaultConfig() Config {
	return Config{Retry: DefaultRetryPolicy(), Timeout: 5 * time.Second}
}

type Provisioner struct {
	store storage.Storage
	cfg   Config
}

func New(store storage.Storage, cfg Config) *Provisioner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Provisioner{store: store, cfg: cfg}
}

// Prefixes retourne les préfixes successifs d'un dossier : a, a/b, a/b/c
func Prefixes(dir string) []string {
	var segments []string
	for _, s := range strings.Split(dir, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	prefixes := make([]string, 0, len(segments))
	for i := range segments {
		prefixes = append(prefixes, strings.Join(segments[:i+1], "/"))
	}
	return prefixes
}

// EnsureFolders matérialise chaque préfixe de dir dans l'ordre.
// Un préfixe en échec après ses tentatives est journalisé puis ignoré.
// Le timeout arrête l'attente, même si le backend ignore le contexte :
// les préfixes non terminés sont marqués en échec et l'appel en cours
// est abandonné sans être attendu.
func (p *Provisioner) EnsureFolders(ctx context.Context, dir string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	logger := log.Ctx(ctx).With().Str("dir", dir).Logger()
	w := &walk{prefixes: Prefixes(dir)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.run(ctx, w)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.abandon(p.reason(ctx.Err()))
	}

	outcome := w.outcome()
	if !outcome.OK() {
		logger.Warn().
			Strs("failed", outcome.Failed).
			Str("reason", outcome.Reason).
			Msg("Provisioner.EnsureFolders: degraded")
	}

	return outcome
}

// walk suit la progression d'EnsureFolders, partagée avec la goroutine
// qui appelle le backend
type walk struct {
	mu        sync.Mutex
	prefixes  []string
	next      int
	failed    []string
	reason    string
	abandoned bool
}

func (p *Provisioner) run(ctx context.Context, w *walk) {
	logger := log.Ctx(ctx)

	for i, prefix := range w.prefixes {
		w.mu.Lock()
		if w.abandoned {
			w.mu.Unlock()
			return
		}
		if ctx.Err() != nil {
			w.failed = append(w.failed, w.prefixes[i:]...)
			w.reason = p.reason(ctx.Err())
			w.next = len(w.prefixes)
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		err := p.ensure(ctx, prefix)

		w.mu.Lock()
		if w.abandoned {
			w.mu.Unlock()
			return
		}
		if err != nil {
			logger.Warn().Err(err).Str("prefix", prefix).Msg("Provisioner.EnsureFolders: folder not provisioned, continuing")
			w.failed = append(w.failed, prefix)
			w.reason = p.reason(err)
		}
		w.next = i + 1
		w.mu.Unlock()
	}
}

// abandon fige le résultat : le préfixe en cours et les suivants échouent
func (w *walk) abandon(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.abandoned {
		return
	}
	w.abandoned = true
	if w.next < len(w.prefixes) {
		w.failed = append(w.failed, w.prefixes[w.next:]...)
		w.reason = reason
		w.next = len(w.prefixes)
	}
}

func (w *walk) outcome() Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	outcome := Outcome{Status: StatusOK}
	if len(w.failed) > 0 {
		outcome.Status = StatusDegraded
		outcome.Reason = w.reason
		outcome.Failed = append([]string(nil), w.failed...)
	}
	return outcome
}

// EnsureParents provisionne le dossier parent d'un fichier
func (p *Provisioner) EnsureParents(ctx context.Context, filePath string) Outcome {
	dir := path.Dir(filePath)
	if dir == "." || dir == "/" {
		return Outcome{Status: StatusOK}
	}
	return p.EnsureFolders(ctx, dir)
}

func (p *Provisioner) ensure(ctx context.Context, prefix string) error {
	attempt := 0
	op := func() error {
		attempt++
		err := p.store.EnsureDir(ctx, prefix)
		if err == nil || storage.IsTolerated(err) {
			return nil
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Ctx(ctx).Debug().
			Err(err).
			Str("prefix", prefix).
			Int("attempt", attempt).
			Dur("next_in", wait).
			Msg("Provisioner: retrying folder")
	}

	return backoff.RetryNotify(op, p.cfg.Retry.NewBackOff(ctx), notify)
}

func (p *Provisioner) reason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("timeout after %s", p.cfg.Timeout)
	}
	return fmt.Sprintf("retries exhausted: %v", err)
}
