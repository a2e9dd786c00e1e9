package cue

// Document is the serialized form of a single cue. One flat struct covers
// every variant; type-specific fields are omitted when empty. Group
// children nest recursively.
type Document struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Number       string  `json:"number"`
	Name         string  `json:"name"`
	Duration     float64 `json:"duration"`
	PreWait      float64 `json:"preWait,omitempty"`
	PostWait     float64 `json:"postWait,omitempty"`
	ContinueMode bool    `json:"continueMode,omitempty"`
	Color        string  `json:"color,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	IsArmed      *bool   `json:"isArmed,omitempty"`
	TargetCueID  string  `json:"targetCueId,omitempty"`
	CreatedTime  string  `json:"createdTime,omitempty"`
	ModifiedTime string  `json:"modifiedTime,omitempty"`

	// Group cues
	Children []Document `json:"children,omitempty"`
	Mode     string     `json:"mode,omitempty"`

	// Control cues
	FadeTime float64 `json:"fadeTime,omitempty"`

	// Audio cues. Volume is a pointer because 0 (silent) is a meaningful
	// stored value.
	FilePath         string             `json:"filePath,omitempty"`
	Volume           *float64           `json:"volume,omitempty"`
	Pan              float64            `json:"pan,omitempty"`
	Rate             float64            `json:"rate,omitempty"`
	StartTime        float64            `json:"startTime,omitempty"`
	EndTime          float64            `json:"endTime,omitempty"`
	MatrixRouting    map[string]float64 `json:"matrixRouting,omitempty"`
	AudioOutputPatch string             `json:"audioOutputPatch,omitempty"`
}

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

// FromDocument rebuilds a cue, recursively for groups. The document's type
// string is parsed case-insensitively; unknown types fall back to Audio.
func FromDocument(doc Document) Cue {
	t := ParseType(doc.Type)
	c := New(t)

	switch v := c.(type) {
	case *GroupCue:
		v.applyDocument(doc)
		v.mode = ParseGroupMode(doc.Mode)
		for _, childDoc := range doc.Children {
			v.AddChild(FromDocument(childDoc))
		}
		v.recalcDuration()
	case *ControlCue:
		v.applyDocument(doc)
		v.SetFadeTime(doc.FadeTime)
	case *AudioCue:
		v.applyDocument(doc)
		v.filePath = doc.FilePath
		if doc.Volume != nil {
			v.SetVolume(*doc.Volume)
		}
		v.SetPan(doc.Pan)
		if doc.Rate != 0 {
			v.SetRate(doc.Rate)
		}
		v.SetStartTime(doc.StartTime)
		v.SetEndTime(doc.EndTime)
		if len(doc.MatrixRouting) > 0 {
			routing := make(map[string]float64, len(doc.MatrixRouting))
			for k, level := range doc.MatrixRouting {
				routing[k] = level
			}
			v.matrixRouting = routing
		}
		v.outputPatch = doc.AudioOutputPatch
	default:
		c.base().applyDocument(doc)
	}
	return c
}
