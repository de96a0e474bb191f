package setup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/acolita/ddns-setup/internal/watch"
	"github.com/acolita/ddns-setup/internal/wizard"
)

// formFrom loads a decoded payload into a fresh form. The returned issues
// flag a secret the auth method does not select, which the form itself
// cannot represent.
func formFrom(data []byte) (*wizard.Form, []wizard.Issue, error) {
	p, err := wizard.DecodePayload(data)
	if err != nil {
		return nil, nil, err
	}
	form := wizard.New()
	form.Apply(p)
	return form, p.SecretIssues(), nil
}

// Check reads a payload file, prints a validation report and returns
// ErrInvalidForm if the payload would be rejected.
func (r *Runner) Check(path string) ([]wizard.Issue, error) {
	path = r.expandHome(path)
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	form, conflicts, err := formFrom(data)
	if err != nil {
		return nil, err
	}

	r.printer.Report(form, conflicts...)
	issues := append(form.Issues(), conflicts...)
	if len(issues) > 0 {
		return issues, ErrInvalidForm
	}
	return nil, nil
}

// Watch checks the payload file now and again after every change until ctx
// is done. Files that fail to decode are reported and keep the last good
// form.
func (r *Runner) Watch(ctx context.Context, path string) error {
	path = r.expandHome(path)

	store := wizard.NewStore(nil)
	ready := make(chan struct{})

	// Loads are serialized and Set delivers before returning, so the
	// subscriber always sees the conflicts of the file it is reporting.
	var (
		mu        sync.Mutex
		conflicts []wizard.Issue
	)
	load := func(data []byte) {
		form, found, err := formFrom(data)
		if err != nil {
			r.printer.Error("%s: %v", path, err)
			return
		}
		mu.Lock()
		conflicts = found
		mu.Unlock()
		store.Set(*form)
	}

	w, err := watch.New(path, func(data []byte) {
		<-ready
		load(data)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	load(w.Data())
	close(ready)

	unsubscribe := store.Subscribe(func(form wizard.Form) {
		mu.Lock()
		found := conflicts
		mu.Unlock()
		r.printer.Report(&form, found...)
	})
	defer unsubscribe()

	slog.Info("watching payload file",
		slog.String("path", path),
		slog.String("session_id", store.SessionID()),
	)

	<-ctx.Done()
	return nil
}
