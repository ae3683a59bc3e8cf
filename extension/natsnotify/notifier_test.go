package natsnotify

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbadapter/data/db/dialect"
	"dbadapter/extension"
	"dbadapter/logging"
)

type published struct {
	subject string
	event   Event
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(subj string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	f.msgs = append(f.msgs, published{subject: subj, event: e})
	return nil
}

func newTestNotifier(pub publisher, logger logging.Logger) *Notifier {
	n := newWithPublisher(pub, Config{SubjectPrefix: "app.dialects.", Logger: logger})
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return n
}

func TestNotifier_PublishesRegistryAndLoaderEvents(t *testing.T) {
	pub := &fakePublisher{}
	n := newTestNotifier(pub, logging.NewNoopLogger())

	reg := extension.NewRegistry(extension.WithLogger(logging.NewNoopLogger()))
	catalog := extension.NewCatalog()
	require.NoError(t, catalog.Add(extension.NewUnit("unit-a", func(reg *extension.Registry) error {
		reg.Register(dialect.NameMySQL, extension.NamePattern("mysql"))
		reg.Register(dialect.NameMySQL, extension.NamePattern("mariadb"))
		return nil
	})))

	loader := extension.NewLoader(reg, extension.LoaderConfig{},
		extension.WithCatalog(catalog),
		extension.WithLoaderLogger(logging.NewNoopLogger()),
		n.Attach(reg))
	_, err := loader.Discover()
	require.NoError(t, err)

	require.Len(t, pub.msgs, 3)

	assert.Equal(t, "app.dialects.registered", pub.msgs[0].subject)
	assert.Equal(t, "mysql", pub.msgs[0].event.Name)
	assert.False(t, pub.msgs[0].event.Redeclared)

	assert.Equal(t, "app.dialects.registered", pub.msgs[1].subject)
	assert.True(t, pub.msgs[1].event.Redeclared)

	assert.Equal(t, "app.dialects.loaded", pub.msgs[2].subject)
	assert.Equal(t, EventLoaded, pub.msgs[2].event.Event)
	assert.Equal(t, "unit-a", pub.msgs[2].event.Unit)
	assert.Equal(t, 2026, pub.msgs[2].event.At.Year())
	assert.NotEmpty(t, pub.msgs[2].event.ID)
	assert.NotEqual(t, pub.msgs[1].event.ID, pub.msgs[2].event.ID)
}

func TestNotifier_PublishErrorIsLoggedOnly(t *testing.T) {
	capture := logging.NewCaptureLogger()
	n := newTestNotifier(&fakePublisher{err: errors.New("nats: connection closed")}, capture)

	reg := extension.NewRegistry(extension.WithLogger(logging.NewNoopLogger()), extension.WithObserver(n))
	d := reg.Register(dialect.NamePostgres, extension.NamePattern("postgres"))
	require.NotNil(t, d)

	_, ok := reg.Resolve("postgres", nil)
	assert.True(t, ok)

	warns := capture.EntriesAt(logging.WarnLevel)
	require.Len(t, warns, 1)
	subject, _ := warns[0].Field("subject")
	assert.Equal(t, "app.dialects.registered", subject)
}

func TestNotifier_Subject(t *testing.T) {
	n := newWithPublisher(&fakePublisher{}, Config{Logger: logging.NewNoopLogger()})
	assert.Equal(t, extension.DefaultNamespace+".dialects.loaded", n.Subject(EventLoaded))
	assert.NoError(t, n.Close())
}
