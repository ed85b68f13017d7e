package course

// Content item types.
const (
	ContentVideo = "video"
	ContentText  = "text"
	ContentQuiz  = "quiz"
)

type Course struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedBy string `json:"created_by,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type Module struct {
	ID         string `json:"id"`
	CourseID   string `json:"course_id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}

// ContentItem is one unit of course material. The course-wide order is
// (module order_index, content order_index); that concatenated order is
// the locking sequence.
type ContentItem struct {
	ID         string `json:"id"`
	ModuleID   string `json:"module_id"`
	CourseID   string `json:"course_id"`
	Type       string `json:"type"` // video|text|quiz
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`

	// QuizID links a quiz: for video items the follow-up check, for quiz
	// items the quiz being presented. A linked quiz is a separate,
	// separately-completable progress step.
	QuizID string `json:"quiz_id,omitempty"`

	// PrereqContentID names the video a quiz item requires before it
	// unlocks. It may differ from the item's immediate list predecessor.
	PrereqContentID string `json:"prereq_content_id,omitempty"`

	// MaterialKey is the blob-store key of the uploaded study material.
	MaterialKey string `json:"material_key,omitempty"`
}
