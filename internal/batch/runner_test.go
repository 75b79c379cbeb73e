package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lucasandrade/disparador/internal/contacts"
	"github.com/lucasandrade/disparador/internal/delivery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBackend records sends and fails the addresses listed in failFor.
type mockBackend struct {
	sent    []*delivery.Message
	failFor map[string]bool
	failAll bool
}

func (m *mockBackend) Send(_ context.Context, msg *delivery.Message) error {
	m.sent = append(m.sent, msg)
	if m.failAll || m.failFor[msg.To] {
		return errors.New("transport refused")
	}
	return nil
}

func testRunner(backend delivery.Backend) (*Runner, *[]time.Duration) {
	slept := &[]time.Duration{}
	r := NewRunner(backend)
	r.sleep = func(_ context.Context, d time.Duration) { *slept = append(*slept, d) }
	r.uniform = func() float64 { return 0.5 } // no jitter
	return r, slept
}

func record(row int, email string) contacts.Record {
	return contacts.Record{Row: row, Name: "Contato", Email: email, Status: contacts.StatusPending}
}

func TestRunAllFailures(t *testing.T) {
	backend := &mockBackend{failAll: true}
	r, _ := testRunner(backend)

	recs := []contacts.Record{
		record(0, "a@empresa.com"),
		record(1, "b@empresa.com"),
		record(2, "c@empresa.com"),
		record(3, "d@empresa.com"),
		record(4, "e@empresa.com"),
	}
	req := Request{Subject: "Oi", TextTemplate: "Olá {nome}", SkipPacing: true}

	outcomes, summary := Collect(r.Run(context.Background(), recs, req), 10, false)

	assert.Equal(t, Summary{Requested: 5, SentOK: 0, Failed: 5, Limit: 10}, summary)
	require.Len(t, outcomes, 5)
	for i, out := range outcomes {
		assert.Equal(t, i, out.Row)
		assert.False(t, out.Success)
		assert.Equal(t, contacts.StatusFailed, out.Status)
	}
	assert.Len(t, backend.sent, 5)
}

func TestRunOutcomeOrderAndLabels(t *testing.T) {
	backend := &mockBackend{failFor: map[string]bool{"b@empresa.com": true}}
	r, _ := testRunner(backend)

	recs := []contacts.Record{
		record(2, "a@empresa.com"),
		record(5, "b@empresa.com"),
		record(9, "c@empresa.com"),
	}
	req := Request{Subject: "Oi", TextTemplate: "Olá {nome}", SkipPacing: true}

	outcomes, summary := Collect(r.Run(context.Background(), recs, req), 10, false)

	require.Len(t, outcomes, 3)
	assert.Equal(t, []int{2, 5, 9}, []int{outcomes[0].Row, outcomes[1].Row, outcomes[2].Row})
	assert.Equal(t, contacts.StatusContacted, outcomes[0].Status)
	assert.Equal(t, contacts.StatusFailed, outcomes[1].Status)
	assert.Equal(t, contacts.StatusContacted, outcomes[2].Status)
	assert.Equal(t, 2, summary.SentOK)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, summary.Requested, summary.SentOK+summary.Failed)
}

func TestRunValidationSkipDoesNotSendOrPace(t *testing.T) {
	backend := &mockBackend{}
	r, slept := testRunner(backend)

	recs := []contacts.Record{
		record(0, "exemplo@dominio.com"),
		record(1, "joao@empresa.com"),
	}
	req := Request{Subject: "Oi", TextTemplate: "Olá {nome}", Interval: 10 * time.Second}

	outcomes, summary := Collect(r.Run(context.Background(), recs, req), 10, false)

	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Success)
	assert.True(t, outcomes[1].Success)
	assert.Equal(t, 2, summary.Requested)

	// Only the real attempt reached the backend and paid the pacing delay.
	require.Len(t, backend.sent, 1)
	assert.Equal(t, "joao@empresa.com", backend.sent[0].To)
	assert.Len(t, *slept, 1)
}

func TestRunRendersPerContact(t *testing.T) {
	backend := &mockBackend{}
	r, _ := testRunner(backend)

	recs := []contacts.Record{
		{Row: 0, Name: "Maria", Email: "maria@empresa.com"},
		{Row: 1, Name: "", Email: "sem.nome@empresa.com"},
	}
	req := Request{
		Subject:      "Oi",
		TextTemplate: "Olá {nome}, tudo bem?",
		HTMLTemplate: "<p>Olá {nome}</p>",
		SkipPacing:   true,
	}

	Collect(r.Run(context.Background(), recs, req), 10, false)

	require.Len(t, backend.sent, 2)
	assert.Equal(t, "Olá Maria, tudo bem?", backend.sent[0].Text)
	assert.Equal(t, "<p>Olá Maria</p>", backend.sent[0].HTML)
	assert.Equal(t, "Olá , tudo bem?", backend.sent[1].Text)
}

func TestRunTextOnlyOmitsHTML(t *testing.T) {
	backend := &mockBackend{}
	r, _ := testRunner(backend)

	recs := []contacts.Record{record(0, "a@empresa.com")}
	req := Request{
		Subject:      "Oi",
		TextTemplate: "Olá {nome}",
		HTMLTemplate: "<p>Olá {nome}</p>",
		TextOnly:     true,
		SkipPacing:   true,
	}

	Collect(r.Run(context.Background(), recs, req), 10, false)

	require.Len(t, backend.sent, 1)
	assert.Empty(t, backend.sent[0].HTML)
}

func TestRunEarlyStop(t *testing.T) {
	backend := &mockBackend{}
	r, _ := testRunner(backend)

	recs := []contacts.Record{
		record(0, "a@empresa.com"),
		record(1, "b@empresa.com"),
		record(2, "c@empresa.com"),
	}
	req := Request{Subject: "Oi", TextTemplate: "x", SkipPacing: true}

	for range r.Run(context.Background(), recs, req) {
		break
	}

	// Stopping the consumer stops the remaining sends.
	assert.Len(t, backend.sent, 1)
}

func TestRunCanceledContext(t *testing.T) {
	backend := &mockBackend{}
	r, _ := testRunner(backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, _ := Collect(r.Run(ctx, []contacts.Record{record(0, "a@empresa.com")}, Request{TextTemplate: "x"}), 10, false)
	assert.Empty(t, outcomes)
	assert.Empty(t, backend.sent)
}

func TestPacingDelayJitterBounds(t *testing.T) {
	r := NewRunner(&mockBackend{})
	interval := 10 * time.Second

	for _, u := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 0.999} {
		r.uniform = func() float64 { return u }
		d := r.pacingDelay(interval)
		assert.GreaterOrEqual(t, d, 8*time.Second)
		assert.LessOrEqual(t, d, 12*time.Second)
	}
}

func TestPacingDelayFloor(t *testing.T) {
	r := NewRunner(&mockBackend{})
	r.uniform = func() float64 { return 0 } // maximum negative jitter

	assert.Equal(t, time.Second, r.pacingDelay(0))
	assert.Equal(t, time.Second, r.pacingDelay(1*time.Second))
}

func TestReaderToRunnerScenario(t *testing.T) {
	// Row 0 already contacted, row 1 has no address, row 2 is pending:
	// exactly one contact reaches the backend and one outcome is emitted.
	csv := "Nome,E-mail,Status\n" +
		"Ana,ana@empresa.com,Contatado\n" +
		"Bruno,,Aguardando\n" +
		"Carla,x@y.com,Aguardando\n"

	recs, err := contacts.Read([]byte(csv), 10)
	require.NoError(t, err)

	backend := &mockBackend{}
	r, _ := testRunner(backend)
	req := Request{Subject: "Oi", TextTemplate: "Olá {nome}", SkipPacing: true}

	outcomes, summary := Collect(r.Run(context.Background(), recs, req), 10, false)

	require.Len(t, outcomes, 1)
	assert.Equal(t, 2, outcomes[0].Row)
	assert.Equal(t, "x@y.com", outcomes[0].Email)
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, Summary{Requested: 1, SentOK: 1, Failed: 0, Limit: 10}, summary)
	require.Len(t, backend.sent, 1)
}
