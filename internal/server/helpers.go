package server

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
)

// fallbackTitle stands in when a source cannot resolve a video's name.
const fallbackTitle = "未知视频"

// playbackID derives a short stable id for a title/source pair; the same
// film on the same source always maps to the same player page.
func playbackID(title, sourceName string) string {
	sum := md5.Sum([]byte(title + "_" + sourceName))
	return hex.EncodeToString(sum[:])[:12]
}

// playerURL builds the static player page URL. originalID is the catalog id
// the player needs for its follow-up episode requests.
func playerURL(base, title, sourceName, originalID string) string {
	return fmt.Sprintf("%s/static/player.html?videoId=%s&source=%s&movieTitle=%s&index=0&originalId=%s",
		base,
		playbackID(title, sourceName),
		url.QueryEscape(sourceName),
		url.QueryEscape(title),
		url.QueryEscape(originalID),
	)
}
