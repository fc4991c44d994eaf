package chatclient

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State of the current submission cycle.
type State string

const (
	StateComposing      State = "COMPOSING"
	StateSentOptimistic State = "SENT_OPTIMISTIC"
	StateStreaming      State = "STREAMING"
	StateSettled        State = "SETTLED"
	StateRolledBack     State = "ROLLED_BACK"
)

// provisionalAnswerID keys the single in-flight assistant entry. The
// value never collides with a server id because server ids are only
// carried by settled identities.
const provisionalAnswerID = "ai-response"

// Identity tags a cache entry as settled (ID is the server's) or
// provisional (ID is client-local). Merging keys off the tag, never
// off the raw string.
type Identity struct {
	Provisional bool
	ID          string
}

// Entry is one message as the cache holds it.
type Entry struct {
	Identity      Identity
	IsUserMessage bool
	Text          string
	CreatedAt     time.Time
}

// Page mirrors one fetched keyset page, entries newest first.
type Page struct {
	Entries    []Entry
	NextCursor *string
}

// Session is the optimistic message cache for one file. All cache
// mutations build fresh slices, so a snapshot taken before a send stays
// valid and rollback is a pointer swap.
type Session struct {
	client   *Client
	fileID   string
	pageSize int

	// OnNotice receives user-facing notices (failed sends, empty or
	// interrupted answers). Optional.
	OnNotice func(string)

	mu            sync.Mutex
	input         string
	backup        string
	pages         []Page
	state         State
	loading       bool
	sendToken     uint64
	cancelRefetch context.CancelFunc
}

func NewSession(client *Client, fileID string, pageSize int) *Session {
	return &Session{
		client:   client,
		fileID:   fileID,
		pageSize: pageSize,
		state:    StateComposing,
	}
}

// Load fetches the newest page, replacing whatever is cached.
func (s *Session) Load(ctx context.Context) error {
	page, err := s.client.GetFileMessages(ctx, s.fileID, s.pageSize, "")
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pages = []Page{pageFromServer(page)}
	s.mu.Unlock()
	return nil
}

func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Messages returns the cached log in chronological order, oldest first.
func (s *Session) Messages() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for i := len(s.pages) - 1; i >= 0; i-- {
		entries := s.pages[i].Entries
		for j := len(entries) - 1; j >= 0; j-- {
			out = append(out, entries[j])
		}
	}
	return out
}

// Send submits the composed input and follows the whole answer stream.
// It blocks until the exchange settles or rolls back; run it on its own
// goroutine to keep a UI responsive.
func (s *Session) Send(ctx context.Context) error {
	s.mu.Lock()
	text := strings.TrimSpace(s.input)
	if text == "" {
		s.mu.Unlock()
		return errors.New("nothing to send")
	}

	// Back up and clear the input before anything can fail, and stop
	// any refetch still in flight so it cannot clobber the optimistic
	// insert.
	s.backup = s.input
	s.input = ""
	if s.cancelRefetch != nil {
		s.cancelRefetch()
		s.cancelRefetch = nil
	}

	snapshot := s.pages
	s.sendToken++
	token := s.sendToken

	s.insertLocked(Entry{
		Identity:      Identity{Provisional: true, ID: uuid.NewString()},
		IsUserMessage: true,
		Text:          text,
		CreatedAt:     time.Now(),
	})
	s.state = StateSentOptimistic
	s.loading = true
	s.mu.Unlock()

	stream, err := s.client.SendMessage(ctx, s.fileID, text)
	if err != nil {
		s.rollback(token, snapshot)
		return err
	}
	defer stream.Close()

	s.transition(token, StateStreaming)

	reader := bufio.NewReader(stream)
	buf := make([]byte, 512)
	var answer strings.Builder
	received := false
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			received = true
			answer.Write(buf[:n])
			if !s.upsertAnswer(token, answer.String()) {
				// A newer submission owns the cache now.
				return nil
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			// Keep the user's message and the partial answer visible;
			// the settle refetch replaces them with the server's truth.
			s.notify("The answer stream was interrupted.")
			s.settle(token)
			return readErr
		}
	}

	if !received {
		s.notify("The assistant returned no answer.")
	}
	s.settle(token)
	return nil
}

// LoadOlder follows the oldest cached page's cursor and appends the
// next page. It is a no-op when the log end was already reached.
func (s *Session) LoadOlder(ctx context.Context) error {
	s.mu.Lock()
	if len(s.pages) == 0 {
		s.mu.Unlock()
		return s.Load(ctx)
	}
	last := s.pages[len(s.pages)-1]
	if last.NextCursor == nil {
		s.mu.Unlock()
		return nil
	}
	cursor := *last.NextCursor
	token := s.sendToken
	s.mu.Unlock()

	page, err := s.client.GetFileMessages(ctx, s.fileID, s.pageSize, cursor)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.sendToken {
		// A send happened while we were fetching; its settle refetch
		// resets the page list, so this page no longer lines up.
		return nil
	}
	pages := make([]Page, len(s.pages), len(s.pages)+1)
	copy(pages, s.pages)
	s.pages = append(pages, pageFromServer(page))
	return nil
}

// insertLocked prepends an entry to the newest page without touching
// the existing slices.
func (s *Session) insertLocked(e Entry) {
	pages := make([]Page, len(s.pages))
	copy(pages, s.pages)
	if len(pages) == 0 {
		pages = []Page{{}}
	}
	head := pages[0]
	entries := make([]Entry, 0, len(head.Entries)+1)
	entries = append(entries, e)
	entries = append(entries, head.Entries...)
	pages[0] = Page{Entries: entries, NextCursor: head.NextCursor}
	s.pages = pages
}

// upsertAnswer replaces or inserts the provisional assistant entry.
// Returns false when the token is stale and nothing was changed.
func (s *Session) upsertAnswer(token uint64, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.sendToken {
		return false
	}

	pages := make([]Page, len(s.pages))
	copy(pages, s.pages)
	if len(pages) == 0 {
		pages = []Page{{}}
	}
	head := pages[0]

	entries := make([]Entry, len(head.Entries))
	copy(entries, head.Entries)

	if len(entries) > 0 && entries[0].Identity.Provisional && entries[0].Identity.ID == provisionalAnswerID {
		entries[0].Text = text
	} else {
		withAnswer := make([]Entry, 0, len(entries)+1)
		withAnswer = append(withAnswer, Entry{
			Identity:      Identity{Provisional: true, ID: provisionalAnswerID},
			IsUserMessage: false,
			Text:          text,
			CreatedAt:     time.Now(),
		})
		entries = append(withAnswer, entries...)
	}

	pages[0] = Page{Entries: entries, NextCursor: head.NextCursor}
	s.pages = pages
	return true
}

func (s *Session) transition(token uint64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.sendToken {
		return
	}
	s.state = state
}

// rollback restores the pre-send snapshot and the composed input, then
// refetches the newest page. The server writes the user's message before
// answering, so a failed send can still have left it persisted; only the
// refetch can tell.
func (s *Session) rollback(token uint64, snapshot []Page) {
	s.mu.Lock()
	if token != s.sendToken {
		s.mu.Unlock()
		return
	}
	s.pages = snapshot
	s.input = s.backup
	s.state = StateRolledBack
	s.loading = false

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelRefetch = cancel
	s.mu.Unlock()

	s.notify("Your message could not be sent.")

	page, err := s.client.GetFileMessages(ctx, s.fileID, s.pageSize, "")
	cancel()

	s.mu.Lock()
	if token != s.sendToken {
		s.mu.Unlock()
		return
	}
	s.cancelRefetch = nil
	if err == nil {
		s.pages = []Page{pageFromServer(page)}
	}
	s.mu.Unlock()
}

// settle ends the loading state and refetches the newest page so the
// provisional entries are replaced by the server's settled ones. Older
// cached pages are dropped and re-fetched on demand.
func (s *Session) settle(token uint64) {
	s.mu.Lock()
	if token != s.sendToken {
		s.mu.Unlock()
		return
	}
	s.state = StateSettled
	s.loading = false

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelRefetch = cancel
	s.mu.Unlock()

	page, err := s.client.GetFileMessages(ctx, s.fileID, s.pageSize, "")
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.sendToken {
		// A newer send owns the cache and the refetch slot.
		return
	}
	s.cancelRefetch = nil
	if err != nil {
		return
	}
	s.pages = []Page{pageFromServer(page)}
}

func (s *Session) notify(message string) {
	if s.OnNotice != nil {
		s.OnNotice(message)
	}
}

func pageFromServer(page *MessagePage) Page {
	entries := make([]Entry, len(page.Messages))
	for i, m := range page.Messages {
		entries[i] = Entry{
			Identity:      Identity{Provisional: false, ID: m.ID},
			IsUserMessage: m.IsUserMessage,
			Text:          m.Text,
			CreatedAt:     m.CreatedAt,
		}
	}
	return Page{Entries: entries, NextCursor: page.NextCursor}
}
