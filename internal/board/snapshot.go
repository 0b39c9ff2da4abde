package board

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/gosuda/taskboard/internal/domain"
)

// isoLayout is the millisecond UTC form dates are written in.
const isoLayout = "2006-01-02T15:04:05.000Z"

// isoPattern decides which strings are revived as dates on load. It is
// applied to every string in the document, whatever field holds it, and
// keeps the unescaped '.' of the format it mirrors.
var isoPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}.\d{3}Z$`)

// snapshotVersion is written alongside the state for envelope compatibility.
const snapshotVersion = 0

type isoTime time.Time

func (t isoTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(isoLayout) + `"`), nil
}

type envelopeJSON struct {
	State   stateJSON `json:"state"`
	Version int       `json:"version"`
}

type stateJSON struct {
	Board           *boardJSON       `json:"board"`
	FilterCompleted bool             `json:"filterCompleted"`
	FilterPriority  *domain.Priority `json:"filterPriority"`
}

type boardJSON struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Lists     []listJSON `json:"lists"`
	CreatedAt isoTime    `json:"createdAt"`
}

type listJSON struct {
	ID        string     `json:"id"`
	BoardID   string     `json:"boardId"`
	Name      string     `json:"name"`
	Order     int        `json:"order"`
	Tasks     []taskJSON `json:"tasks"`
	CreatedAt isoTime    `json:"createdAt"`
}

type taskJSON struct {
	ID          string          `json:"id"`
	ListID      string          `json:"listId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	DueDate     *isoTime        `json:"dueDate,omitempty"`
	Order       int             `json:"order"`
	Priority    domain.Priority `json:"priority"`
	Completed   bool            `json:"completed"`
	CreatedAt   isoTime         `json:"createdAt"`
	UpdatedAt   isoTime         `json:"updatedAt"`
}

func encodeSnapshot(b *domain.Board, filter domain.Filter) ([]byte, error) {
	env := envelopeJSON{
		State: stateJSON{
			FilterCompleted: filter.HideCompleted,
			FilterPriority:  filter.Priority,
		},
		Version: snapshotVersion,
	}

	if b != nil {
		bj := &boardJSON{
			ID:        b.ID,
			Name:      b.Name,
			Lists:     make([]listJSON, len(b.Lists)),
			CreatedAt: isoTime(b.CreatedAt),
		}
		for i, l := range b.Lists {
			lj := listJSON{
				ID:        l.ID,
				BoardID:   l.BoardID,
				Name:      l.Name,
				Order:     l.Order,
				Tasks:     make([]taskJSON, len(l.Tasks)),
				CreatedAt: isoTime(l.CreatedAt),
			}
			for j, t := range l.Tasks {
				tj := taskJSON{
					ID:          t.ID,
					ListID:      t.ListID,
					Name:        t.Name,
					Description: t.Description,
					Order:       t.Order,
					Priority:    t.Priority,
					Completed:   t.Completed,
					CreatedAt:   isoTime(t.CreatedAt),
					UpdatedAt:   isoTime(t.UpdatedAt),
				}
				if t.DueDate != nil {
					due := isoTime(*t.DueDate)
					tj.DueDate = &due
				}
				lj.Tasks[j] = tj
			}
			bj.Lists[i] = lj
		}
		env.State.Board = bj
	}

	data, err := sonic.ConfigStd.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("board.encodeSnapshot: %w", err)
	}
	return data, nil
}

// revivedDate is what the reviver leaves in place of a matching string.
// valid is false when the string matched the pattern but is not a real
// instant, such as month 13.
type revivedDate struct {
	t     time.Time
	valid bool
}

// String renders the date the way a JavaScript Date stringifies in UTC.
func (d revivedDate) String() string {
	if !d.valid {
		return "Invalid Date"
	}
	return d.t.UTC().Format("Mon Jan 02 2006 15:04:05 GMT-0700") + " (Coordinated Universal Time)"
}

func revive(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = revive(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = revive(e)
		}
		return x
	case string:
		if !isoPattern.MatchString(x) {
			return x
		}
		return parseISODate(x)
	default:
		return v
	}
}

// parseISODate reads a string already matched by isoPattern. Fields are
// range checked the way a JavaScript engine checks them, then overflow rolls
// forward: day 30 of February lands in March and hour 24 is the next
// midnight. A separator other than '.' before the milliseconds is invalid.
func parseISODate(s string) revivedDate {
	if s[19] != '.' {
		return revivedDate{}
	}
	num := func(from, to int) int {
		n, _ := strconv.Atoi(s[from:to])
		return n
	}
	year, month, day := num(0, 4), num(5, 7), num(8, 10)
	hour, minute, sec, ms := num(11, 13), num(14, 16), num(17, 19), num(20, 23)

	switch {
	case month < 1 || month > 12, day < 1 || day > 31:
		return revivedDate{}
	case minute > 59, sec > 59:
		return revivedDate{}
	case hour > 24, hour == 24 && (minute != 0 || sec != 0 || ms != 0):
		return revivedDate{}
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, ms*int(time.Millisecond), time.UTC)
	if t.Year() > 9999 {
		return revivedDate{}
	}
	return revivedDate{t: t, valid: true}
}

// decodeSnapshot parses a stored snapshot. Both the versioned envelope and
// a bare state object are accepted. Orders are re-derived from position and
// task back-references from the containing list.
func decodeSnapshot(data []byte) (*domain.Board, domain.Filter, error) {
	var tree any
	if err := sonic.ConfigStd.Unmarshal(data, &tree); err != nil {
		return nil, domain.Filter{}, fmt.Errorf("board.decodeSnapshot: %w: %w", domain.ErrMalformedSnapshot, err)
	}

	root, ok := revive(tree).(map[string]any)
	if !ok {
		return nil, domain.Filter{}, malformed("root is not an object")
	}
	if state, isEnvelope := root["state"].(map[string]any); isEnvelope {
		root = state
	}

	filter, err := decodeFilter(object(root))
	if err != nil {
		return nil, domain.Filter{}, err
	}

	raw, present := root["board"]
	if !present {
		return nil, domain.Filter{}, malformed("missing board")
	}
	if raw == nil {
		return nil, filter, nil
	}
	bo, ok := raw.(map[string]any)
	if !ok {
		return nil, domain.Filter{}, malformed("board is not an object")
	}

	b, err := decodeBoard(object(bo))
	if err != nil {
		return nil, domain.Filter{}, err
	}
	return b, filter, nil
}

func decodeFilter(o object) (domain.Filter, error) {
	var f domain.Filter

	switch v := o["filterCompleted"].(type) {
	case nil:
	case bool:
		f.HideCompleted = v
	default:
		return f, malformed("filterCompleted is not a boolean")
	}

	switch v := o["filterPriority"].(type) {
	case nil:
	case string:
		p, err := domain.ParsePriority(v)
		if err != nil {
			return f, malformed("filterPriority: " + v)
		}
		f.Priority = &p
	default:
		return f, malformed("filterPriority is not a string")
	}

	return f, nil
}

func decodeBoard(o object) (*domain.Board, error) {
	var (
		b   domain.Board
		err error
	)
	if b.ID, err = o.str("id"); err != nil {
		return nil, err
	}
	if b.Name, err = o.str("name"); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = o.date("createdAt"); err != nil {
		return nil, err
	}
	items, err := o.array("lists")
	if err != nil {
		return nil, err
	}

	b.Lists = make([]domain.List, 0, len(items))
	for i, item := range items {
		lo, ok := item.(map[string]any)
		if !ok {
			return nil, malformed(fmt.Sprintf("lists[%d] is not an object", i))
		}
		l, err := decodeList(object(lo))
		if err != nil {
			return nil, err
		}
		l.Order = i
		b.Lists = append(b.Lists, l)
	}
	return &b, nil
}

func decodeList(o object) (domain.List, error) {
	var (
		l   domain.List
		err error
	)
	if l.ID, err = o.str("id"); err != nil {
		return l, err
	}
	if l.BoardID, err = o.str("boardId"); err != nil {
		return l, err
	}
	if l.Name, err = o.str("name"); err != nil {
		return l, err
	}
	if l.CreatedAt, err = o.date("createdAt"); err != nil {
		return l, err
	}
	items, err := o.array("tasks")
	if err != nil {
		return l, err
	}

	l.Tasks = make([]domain.Task, 0, len(items))
	for i, item := range items {
		to, ok := item.(map[string]any)
		if !ok {
			return l, malformed(fmt.Sprintf("tasks[%d] is not an object", i))
		}
		t, err := decodeTask(object(to))
		if err != nil {
			return l, err
		}
		t.Order = i
		t.ListID = l.ID
		l.Tasks = append(l.Tasks, t)
	}
	return l, nil
}

func decodeTask(o object) (domain.Task, error) {
	var (
		t   domain.Task
		err error
	)
	if t.ID, err = o.str("id"); err != nil {
		return t, err
	}
	if t.Name, err = o.str("name"); err != nil {
		return t, err
	}
	if t.Description, err = o.str("description"); err != nil {
		return t, err
	}
	if t.DueDate, err = o.optionalDate("dueDate"); err != nil {
		return t, err
	}
	prio, err := o.str("priority")
	if err != nil {
		return t, err
	}
	if t.Priority, err = domain.ParsePriority(prio); err != nil {
		return t, malformed("task priority: " + prio)
	}
	if t.Completed, err = o.boolean("completed"); err != nil {
		return t, err
	}
	if t.CreatedAt, err = o.date("createdAt"); err != nil {
		return t, err
	}
	if t.UpdatedAt, err = o.date("updatedAt"); err != nil {
		return t, err
	}
	return t, nil
}

// object is a decoded JSON object after revival.
type object map[string]any

// str reads a string field. A string the reviver turned into a date comes
// back in its date rendering, not the original text.
func (o object) str(key string) (string, error) {
	switch v := o[key].(type) {
	case string:
		return v, nil
	case revivedDate:
		return v.String(), nil
	case nil:
		return "", malformed("missing " + key)
	default:
		return "", malformed(key + " is not a string")
	}
}

func (o object) date(key string) (time.Time, error) {
	switch v := o[key].(type) {
	case revivedDate:
		return v.t, nil
	case nil:
		return time.Time{}, malformed("missing " + key)
	default:
		return time.Time{}, malformed(key + " is not a date")
	}
}

func (o object) optionalDate(key string) (*time.Time, error) {
	if o[key] == nil {
		return nil, nil
	}
	t, err := o.date(key)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (o object) boolean(key string) (bool, error) {
	switch v := o[key].(type) {
	case bool:
		return v, nil
	case nil:
		return false, malformed("missing " + key)
	default:
		return false, malformed(key + " is not a boolean")
	}
}

func (o object) array(key string) ([]any, error) {
	switch v := o[key].(type) {
	case []any:
		return v, nil
	case nil:
		return nil, malformed("missing " + key)
	default:
		return nil, malformed(key + " is not an array")
	}
}

func malformed(detail string) error {
	return fmt.Errorf("board.decodeSnapshot: %w: %s", domain.ErrMalformedSnapshot, detail)
}
