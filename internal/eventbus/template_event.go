package eventbus

type TemplateEventType string

const (
	TemplateEventCreated TemplateEventType = "Created"
	TemplateEventUpdated TemplateEventType = "Updated"
	TemplateEventDeleted TemplateEventType = "Deleted"
)

type TemplateEvent struct {
	Type       TemplateEventType
	TemplateID uint
	Background string // 当前背景引用
	// PreviousBackground 更新时被替换掉的背景引用，未替换为空
	PreviousBackground string
}

type TemplateEventHandler = Handler[TemplateEvent]
type TemplateEventBus = Bus[TemplateEventType, TemplateEvent]

func NewTemplateEventBus() *TemplateEventBus {
	return NewBus[TemplateEventType, TemplateEvent]()
}
