// Package saga ejecuta flujos de varios pasos contra sistemas distintos
// (identidad, documentos, bucket) sin transacción común.
//
// Si un paso falla, se compensan en orden inverso los pasos que ya habían
// terminado. Una compensación que falla se loguea con reconcile=manual y no
// detiene al resto.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

// Step un paso con su compensación opcional.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga lista ordenada de pasos.
type Saga struct {
	name  string
	steps []Step
}

// New crea una saga vacía. name va a los logs.
func New(name string) *Saga {
	return &Saga{name: name}
}

// Add agrega un paso.
func (s *Saga) Add(name string, do, compensate func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, Step{Name: name, Do: do, Compensate: compensate})
	return s
}

// StepError error del paso que cortó la saga.
type StepError struct {
	Saga string
	Step string
	Err  error
	// Unreconciled pasos cuya compensación falló.
	Unreconciled []string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("saga %s: step %s: %v", e.Saga, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Run ejecuta los pasos en orden. Retorna nil o un *StepError que envuelve
// el error original del paso.
func (s *Saga) Run(ctx context.Context) error {
	log := logger.From(ctx).With(logger.Layer("saga"), logger.Component(s.name))

	done := make([]Step, 0, len(s.steps))
	for _, st := range s.steps {
		if err := st.Do(ctx); err != nil {
			serr := &StepError{Saga: s.name, Step: st.Name, Err: err}
			log.Warn("saga step failed, compensating", logger.Op(st.Name), logger.Err(err))

			// compensaciones con un ctx que no se cancela con el request
			cctx := context.WithoutCancel(ctx)
			for i := len(done) - 1; i >= 0; i-- {
				prev := done[i]
				if prev.Compensate == nil {
					continue
				}
				if cerr := prev.Compensate(cctx); cerr != nil {
					serr.Unreconciled = append(serr.Unreconciled, prev.Name)
					log.Error("saga compensation failed",
						logger.Op(prev.Name),
						logger.String("reconcile", "manual"),
						logger.Err(cerr),
					)
				}
			}
			return serr
		}
		done = append(done, st)
	}
	return nil
}

// FailedStep nombre del paso que falló, "" si err no viene de una saga.
func FailedStep(err error) string {
	var serr *StepError
	if errors.As(err, &serr) {
		return serr.Step
	}
	return ""
}
