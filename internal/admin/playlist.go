package admin

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strings"
)

var (
	reTvgName   = regexp.MustCompile(`tvg-name="([^"]*)"`)
	reTvgID     = regexp.MustCompile(`tvg-id="([^"]*)"`)
	reTvgLogo   = regexp.MustCompile(`tvg-logo="([^"]*)"`)
)

var errNoName = errors.New("no name in EXTINF")

// PlaylistEntry is one channel read from an M3U playlist.
type PlaylistEntry struct {
	ChannelName string
	DisplayName string
	Logo        string
}

// Write turns the entry into a channel create.
func (e PlaylistEntry) Write() ChannelWrite {
	return ChannelWrite{ChannelName: e.ChannelName, DisplayName: e.DisplayName, LogoURL: e.Logo}
}

// ParsePlaylist reads an M3U playlist. The channel name is tvg-name, then
// tvg-id, then the title after the comma; the comma title doubles as the
// display name when it differs. An EXTINF not followed by a URL line is skipped.
func ParsePlaylist(r io.Reader) ([]PlaylistEntry, error) {
	var entries []PlaylistEntry
	scanner := bufio.NewScanner(r)
	// some playlists carry very long EXTINF lines
	const maxSize = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxSize)

	var extinf string
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(strings.ToUpper(trimmed), "#EXTINF"):
			extinf = trimmed
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
		default:
			if extinf == "" {
				continue
			}
			e, err := entryFromEXTINF(extinf)
			extinf = ""
			if err != nil {
				continue
			}
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func entryFromEXTINF(extinf string) (PlaylistEntry, error) {
	alt := commaName(extinf)
	name := matchFirst(reTvgName, extinf)
	if name == "" {
		name = matchFirst(reTvgID, extinf)
	}
	if name == "" {
		name = alt
	}
	if name == "" {
		return PlaylistEntry{}, errNoName
	}
	e := PlaylistEntry{ChannelName: name, Logo: matchFirst(reTvgLogo, extinf)}
	if alt != "" && alt != name {
		e.DisplayName = alt
	}
	return e, nil
}

func matchFirst(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// commaName is the title after the first comma following the last quoted
// attribute, so commas inside attribute values are ignored.
func commaName(extinf string) string {
	rest := extinf
	if i := strings.LastIndex(rest, `"`); i >= 0 {
		rest = rest[i+1:]
	}
	i := strings.Index(rest, ",")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(rest[i+1:])
}
