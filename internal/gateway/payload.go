package gateway

import "strings"

// Targeting selects who a notification is addressed to. It is a closed
// pair of variants so an empty token list cannot masquerade as a
// broadcast: build one with SegmentAll or ToPlayers.
type Targeting struct {
	segment   string
	playerIDs []string
}

// SegmentAll targets every registered device; the gateway performs the
// fan-out server-side.
func SegmentAll() Targeting {
	return Targeting{segment: segmentAll}
}

// ToPlayers targets an explicit set of player ids.
func ToPlayers(ids []string) Targeting {
	return Targeting{playerIDs: ids}
}

// Broadcast reports whether the targeting is a gateway-side segment.
func (t Targeting) Broadcast() bool {
	return t.segment != ""
}

const segmentAll = "All"

// Payload is the provider request body minus credentials; the client
// stamps the application id when sending.
type Payload struct {
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	IncludedSegments []string          `json:"included_segments,omitempty"`
	IncludePlayerIDs []string          `json:"include_player_ids,omitempty"`
	BigPicture       string            `json:"big_picture,omitempty"`
}

// Compose builds a gateway payload. Title and description must be
// non-empty after trimming; an image URL, when present, is attached as
// rich media and omitted from the body entirely otherwise. Targeted
// payloads require at least one player id.
func Compose(title, description, imageURL string, target Targeting) (*Payload, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, ErrEmptyContent
	}
	p := &Payload{
		Headings: map[string]string{"en": title},
		Contents: map[string]string{"en": description},
	}
	if target.Broadcast() {
		p.IncludedSegments = []string{target.segment}
	} else {
		if len(target.playerIDs) == 0 {
			return nil, ErrNoTargets
		}
		p.IncludePlayerIDs = target.playerIDs
	}
	if imageURL = strings.TrimSpace(imageURL); imageURL != "" {
		p.BigPicture = imageURL
	}
	return p, nil
}
