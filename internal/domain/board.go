package domain

import "time"

// DefaultListNames are the lists seeded into every new board, in order.
var DefaultListNames = []string{"To Do", "In Progress", "Done"}

type Board struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Lists     []List    `json:"lists"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy of b.
func (b Board) Clone() Board {
	if b.Lists != nil {
		lists := make([]List, len(b.Lists))
		for i, l := range b.Lists {
			lists[i] = l.Clone()
		}
		b.Lists = lists
	}
	return b
}

type List struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	Tasks     []Task    `json:"tasks"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy of l.
func (l List) Clone() List {
	if l.Tasks != nil {
		tasks := make([]Task, len(l.Tasks))
		for i, t := range l.Tasks {
			tasks[i] = t.Clone()
		}
		l.Tasks = tasks
	}
	return l
}
