package audit

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// SDID constants for structured data IDs (RFC5424). 32473 is the
// documentation PEN from RFC5612.
const (
	PEN         = 32473
	SDIDAuth    = "auth@32473"
	SDIDSubject = "subject@32473"
	SDIDAction  = "action@32473"
	SDIDClient  = "client@32473"
	SDIDRequest = "request@32473"
)

// AppName is the RFC5424 APP-NAME of every audit record.
const AppName = "voteme"

// Syslog facilities used by VoteMe events.
const (
	FacilityAuth     = 4
	FacilityAuthPriv = 10
)

// Severity is an RFC5424 severity. Events only use the two below.
type Severity int

const (
	SeverityWarning Severity = 4
	SeverityInfo    Severity = 6
)

// Event represents an audit event
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// Record is one event stamped with time and origin, ready to be written
// or stored.
type Record struct {
	Time     time.Time
	Hostname string
	PID      int
	Event    Event
}

// Priority is the RFC5424 PRI value.
func (r Record) Priority() int {
	return r.Event.Facility()*8 + int(r.Event.Severity())
}

// String renders the record as an RFC5424 line without the trailing
// newline. SD elements and their params are sorted.
func (r Record) String() string {
	host := r.Hostname
	if host == "" {
		host = "-"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<%d>1 %s %s %s %d %s ",
		r.Priority(),
		r.Time.UTC().Format("2006-01-02T15:04:05.000Z"),
		host,
		AppName,
		r.PID,
		r.Event.MessageID(),
	)
	writeStructuredData(&b, r.Event.StructuredData())
	b.WriteByte(' ')
	b.WriteString(r.Event.Message())
	return b.String()
}

func writeStructuredData(b *strings.Builder, sd map[string]map[string]string) {
	if len(sd) == 0 {
		b.WriteByte('-')
		return
	}
	for _, id := range sortedKeys(sd) {
		params := sd[id]
		b.WriteByte('[')
		b.WriteString(id)
		for _, k := range sortedKeys(params) {
			fmt.Fprintf(b, ` %s="%s"`, k, sdEscaper.Replace(params[k]))
		}
		b.WriteByte(']')
	}
}

// sdEscaper escapes PARAM-VALUE characters per RFC5424 section 6.3.3.
var sdEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `]`, `\]`)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Auditor writes records to out and, if store is set, persists them.
type Auditor struct {
	out      io.Writer
	store    *Store
	hostname string
	pid      int
	now      func() time.Time

	mu sync.Mutex
}

// New returns an Auditor writing to out. store may be nil.
func New(out io.Writer, store *Store) *Auditor {
	hostname, _ := os.Hostname()
	return &Auditor{
		out:      out,
		store:    store,
		hostname: hostname,
		pid:      os.Getpid(),
		now:      time.Now,
	}
}

// Log writes one record for event. Storage failures are reported on the
// standard logger and never fail the audited operation.
func (a *Auditor) Log(event Event) {
	rec := Record{Time: a.now(), Hostname: a.hostname, PID: a.pid, Event: event}

	a.mu.Lock()
	_, _ = io.WriteString(a.out, rec.String()+"\n")
	a.mu.Unlock()

	if a.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.Save(ctx, rec); err != nil {
		log.Printf("audit: failed to save %s event: %v", event.MessageID(), err)
	}
}

// Enabled reports whether VOTEME_AUDIT_ENABLED allows auditing. Auditing
// is on unless the variable is false, 0 or no.
func Enabled() bool {
	switch strings.ToLower(os.Getenv("VOTEME_AUDIT_ENABLED")) {
	case "false", "0", "no":
		return false
	}
	return true
}

// Default is the process auditor, built on first use from the
// environment. It is nil when auditing is disabled.
var Default = sync.OnceValue(func() *Auditor {
	if !Enabled() {
		return nil
	}
	store, err := NewStore(os.Getenv("AUDIT_DATABASE_URL"))
	if err != nil {
		log.Printf("audit: failed to connect to audit database: %v", err)
	}
	return New(os.Stdout, store)
})

// Log sends event to the Default auditor.
func Log(event Event) {
	if a := Default(); a != nil {
		a.Log(event)
	}
}
