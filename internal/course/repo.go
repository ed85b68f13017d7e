package course

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type ListOpts struct {
	// StudentID filters to courses the student is enrolled in;
	// InstructorID to courses the instructor created.
	StudentID    string
	InstructorID string
	Limit        int
	Offset       int
}

type Store interface {
	CreateCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context, opts ListOpts) ([]Course, error)

	AddModule(ctx context.Context, m Module) error
	AddContent(ctx context.Context, ci ContentItem) error
	GetContent(ctx context.Context, id string) (ContentItem, error)
	SetMaterialKey(ctx context.Context, contentID, key string) error

	// Inventory returns every content item of a course in total course
	// order: (module order_index, content order_index).
	Inventory(ctx context.Context, courseID string) ([]ContentItem, error)
}
