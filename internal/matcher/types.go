package matcher

import "encoding/json"

// Kind classifies an uploaded file.
type Kind string

const (
	KindSubtitle Kind = "subtitle"
	KindVideo    Kind = "video"
	KindOther    Kind = "other"
)

// Status describes how a pair was formed.
type Status string

const (
	StatusMatched      Status = "Matched"
	StatusSubtitleOnly Status = "SubtitleOnly"
	StatusVideoOnly    Status = "VideoOnly"
)

// MediaFile is an uploaded file classified by kind, with its release-tag
// stripped base name used for matching. Immutable once built.
type MediaFile struct {
	Path     string `json:"path"`
	Kind     Kind   `json:"kind"`
	BaseName string `json:"base_name"`
}

// Pair associates a subtitle file with the video file believed to be the
// same media item. Exactly one side may be absent.
type Pair struct {
	Subtitle *MediaFile `json:"-"`
	Video    *MediaFile `json:"-"`
	Status   Status     `json:"status"`
}

// pairJSON is the wire shape consumed by the upload UI: nullable paths
// plus the status string.
type pairJSON struct {
	Subtitle *string `json:"subtitle"`
	Video    *string `json:"video"`
	Status   Status  `json:"status"`
}

func (p Pair) MarshalJSON() ([]byte, error) {
	out := pairJSON{Status: p.Status}
	if p.Subtitle != nil {
		out.Subtitle = &p.Subtitle.Path
	}
	if p.Video != nil {
		out.Video = &p.Video.Path
	}
	return json.Marshal(out)
}

var subtitleExts = []string{
	".srt", // SubRip
	".ass", // Advanced SubStation Alpha
	".ssa", // SubStation Alpha
	".vtt", // WebVTT
	".sub", // MicroDVD/SubViewer
}

var videoExts = []string{
	".mp4",
	".mkv",
	".avi",
	".mov",
	".flv",
	".wmv",
	".webm",
}
