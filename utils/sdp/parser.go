// Package sdp extracts the RTP payload mapping and out of band parameter sets
// of the video streams of a session description.
package sdp

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/pion/sdp/v3"
	"github.com/ugparu/bitsyntax"
)

// Media describes one RTP video stream.
type Media struct {
	PayloadType  uint8
	EncodingName string
	// Type is zero for codecs not decoded here.
	Type      bitsyntax.CodecType
	ClockRate uint32
	Control   string
	// SpropParameterSets holds the H.264 SPS and PPS NAL units of the fmtp
	// line, in order.
	SpropParameterSets [][]byte
}

// Parse returns the video streams of an SDP document.
func Parse(b []byte) ([]Media, error) {
	var sd sdp.SessionDescription
	if err := sd.Unmarshal(b); err != nil {
		return nil, fmt.Errorf("sdp: %w", err)
	}

	var medias []Media
	for _, md := range sd.MediaDescriptions {
		if md.MediaName.Media != "video" || len(md.MediaName.Formats) == 0 {
			continue
		}
		pt, err := strconv.ParseUint(md.MediaName.Formats[0], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("sdp: payload type %q: %w", md.MediaName.Formats[0], err)
		}
		m := Media{PayloadType: uint8(pt)} //nolint:gosec // parsed as 8 bits
		if v, ok := md.Attribute("control"); ok {
			m.Control = v
		}
		for _, a := range md.Attributes {
			value, ok := forPayload(a.Value, m.PayloadType)
			if !ok {
				continue
			}
			switch a.Key {
			case "rtpmap":
				parseRtpmap(&m, value)
			case "fmtp":
				if err := parseFmtp(&m, value); err != nil {
					return nil, err
				}
			}
		}
		medias = append(medias, m)
	}
	return medias, nil
}

// forPayload strips the leading payload type of an rtpmap or fmtp value.
func forPayload(value string, pt uint8) (string, bool) {
	num, rest, ok := strings.Cut(value, " ")
	if !ok || num != strconv.Itoa(int(pt)) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func parseRtpmap(m *Media, value string) {
	name, rate, _ := strings.Cut(value, "/")
	m.EncodingName = name
	switch strings.ToUpper(name) {
	case "H264":
		m.Type = bitsyntax.H264
	case "AV1":
		m.Type = bitsyntax.AV1
	}
	rate, _, _ = strings.Cut(rate, "/")
	if v, err := strconv.ParseUint(rate, 10, 32); err == nil {
		m.ClockRate = uint32(v) //nolint:gosec // parsed as 32 bits
	}
}

func parseFmtp(m *Media, value string) error {
	for _, kv := range strings.Split(value, ";") {
		key, val, ok := strings.Cut(strings.TrimSpace(kv), "=")
		if !ok || key != "sprop-parameter-sets" {
			continue
		}
		for _, set := range strings.Split(val, ",") {
			if set == "" {
				continue
			}
			nalu, err := base64.StdEncoding.DecodeString(set)
			if err != nil {
				return fmt.Errorf("sdp: sprop-parameter-sets: %w", err)
			}
			m.SpropParameterSets = append(m.SpropParameterSets, nalu)
		}
	}
	return nil
}
