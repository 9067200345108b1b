package model

import "time"

// ProgramTask is one entry of a program's inline task list.
type ProgramTask struct {
	TaskID int64 `json:"taskId"`
}

// Program sequences tasks for one user within an optional time window.
// Tasks is the inline ordered list; the program_tasks table mirrors its set.
type Program struct {
	ID          int64         `db:"id" json:"id"`
	Hash        string        `db:"hash" json:"hash"`
	UserID      int64         `db:"user_id" json:"userId"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	StartsAt    *time.Time    `db:"starts_at" json:"startsAt"`
	EndsAt      *time.Time    `db:"ends_at" json:"endsAt"`
	Tasks       []ProgramTask `db:"-" json:"tasks"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

// ValidateSchedule rejects a window that ends before it starts.
func (p *Program) ValidateSchedule() error {
	if p.StartsAt != nil && p.EndsAt != nil && p.EndsAt.Before(*p.StartsAt) {
		return ErrInvalidSchedule
	}
	return nil
}

// TaskIDs returns the ids of the inline list in order.
func (p *Program) TaskIDs() []int64 {
	ids := make([]int64, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		ids = append(ids, t.TaskID)
	}
	return ids
}

// DedupeTasks drops repeated task references, keeping the first occurrence.
func DedupeTasks(tasks []ProgramTask) []ProgramTask {
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.TaskID)
	}
	out := make([]ProgramTask, 0, len(tasks))
	for _, id := range UniqueIDs(ids) {
		out = append(out, ProgramTask{TaskID: id})
	}
	return out
}

// PublicProgram is a program as shown at /public/programs/{hash}. It never
// carries numeric ids.
type PublicProgram struct {
	Hash        string       `json:"hash"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	StartsAt    *time.Time   `json:"startsAt"`
	EndsAt      *time.Time   `json:"endsAt"`
	Tasks       []PublicTask `json:"tasks"`
}
