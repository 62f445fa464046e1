package types

// ResourceType is the media kind of a curated resource.
type ResourceType string

const (
	ResourceArticle ResourceType = "article"
	ResourceVideo   ResourceType = "video"
	ResourceAudio   ResourceType = "audio"
)

// Resource is a curated piece of recovery content.
type Resource struct {
	ID          int64        `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Type        ResourceType `json:"type" db:"type"`
	Content     string       `json:"content" db:"content"`
	Description *string      `json:"description" db:"description"`
	// Duration is a human-readable length such as "12 min" or "5 min read".
	Duration *string `json:"duration" db:"duration"`
	// Category groups resources, e.g. "triggers" or "mindfulness".
	Category string `json:"category" db:"category"`
	IsActive bool   `json:"isActive" db:"is_active"`
}

// NewResource is the insert shape for a resource.
type NewResource struct {
	Title       string
	Type        ResourceType
	Content     string
	Description *string
	Duration    *string
	Category    string
}
