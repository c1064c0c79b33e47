package events

import (
	"encoding/json"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/tidwall/gjson"

	"github.com/zapstore/zapstore-go/internal/types"
)

// noAssertion is the SPDX sentinel used by publishers that make no license
// claim; it is collapsed to an empty license.
const noAssertion = "NOASSERTION"

const defaultDescription = "No description available"

// Normalizer converts raw events into domain records. The render hook
// produces the HTML form of markdown fields and must be deterministic; a
// nil hook leaves the HTML fields empty.
type Normalizer struct {
	render func(string) string
}

// NewNormalizer returns a Normalizer using render for markdown fields.
func NewNormalizer(render func(string) string) *Normalizer {
	return &Normalizer{render: render}
}

func (n *Normalizer) html(markdown string) string {
	if n.render == nil || markdown == "" {
		return ""
	}
	return n.render(markdown)
}

// contentBody parses an event's content body as JSON. Non-object bodies
// are replaced by {"description": raw} so field lookups degrade gracefully.
func contentBody(ev *nostr.Event) gjson.Result {
	trimmed := strings.TrimSpace(ev.Content)
	if strings.HasPrefix(trimmed, "{") && gjson.Valid(trimmed) {
		return gjson.Parse(trimmed)
	}
	raw, _ := json.Marshal(map[string]string{"description": ev.Content})
	return gjson.ParseBytes(raw)
}

// firstString returns the first non-empty string among the given paths of
// body, or "".
func firstString(body gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := body.Get(p); v.Exists() {
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

// NormalizeLicense collapses the case-insensitive "NoAssertion" sentinel to
// an empty string; any other value passes through unchanged.
func NormalizeLicense(license string) string {
	if strings.EqualFold(strings.TrimSpace(license), noAssertion) {
		return ""
	}
	return license
}

// ParseApp projects a kind-32267 event into an App record. Field values
// prefer the JSON content body, then the tag map, then a default.
func (n *Normalizer) ParseApp(ev *nostr.Event) types.App {
	tm := NewTagMap(ev.Tags)
	body := contentBody(ev)

	icon := tm.Get("icon")
	if icon == "" {
		icon = firstString(body, "icon", "picture")
	}

	images := tm.List("image")
	if len(images) == 0 {
		for _, v := range body.Get("images").Array() {
			if s := v.String(); s != "" {
				images = append(images, s)
			}
		}
	}

	description := firstString(body, "description", "about", "summary")
	if description == "" {
		description = ev.Content
	}
	if description == "" {
		description = defaultDescription
	}

	name := firstString(body, "name")
	if name == "" {
		name = tm.Get("name")
	}
	if name == "" {
		name = "Unknown App"
	}

	license := firstString(body, "license")
	if license == "" {
		license = tm.Get("license")
	}

	pick := func(tagName string, paths ...string) string {
		if v := firstString(body, paths...); v != "" {
			return v
		}
		return tm.Get(tagName)
	}

	return types.App{
		ID:              ev.ID,
		PubKey:          ev.PubKey,
		Npub:            Npub(ev.PubKey),
		DTag:            tm.Get("d"),
		Name:            name,
		Description:     description,
		DescriptionHTML: n.html(description),
		Icon:            icon,
		Images:          images,
		URL:             pick("url", "url", "website"),
		DownloadURL:     pick("download", "downloadUrl", "download"),
		Repository:      pick("repository", "repository", "repo", "source"),
		Category:        pick("category", "category"),
		License:         NormalizeLicense(license),
		Developer:       pick("developer", "developer", "publisher", "author"),
		Platform:        pick("platform", "platform"),
		Requirements:    firstString(body, "requirements", "systemRequirements"),
		Changelog:       firstString(body, "changelog", "releaseNotes"),
		Price:           pick("price", "price"),
		Rating:          pick("rating", "rating"),
		Downloads:       pick("downloads", "downloads"),
		Slug:            AppSlug(ev.PubKey, tm.Get("d")),
		CreatedAt:       int64(ev.CreatedAt),
	}
}

// ParseRelease projects a kind-30063 event into a Release record. The
// content body is release notes, not JSON.
func (n *Normalizer) ParseRelease(ev *nostr.Event) types.Release {
	tm := NewTagMap(ev.Tags)
	return types.Release{
		ID:          ev.ID,
		PubKey:      ev.PubKey,
		Npub:        Npub(ev.PubKey),
		DTag:        tm.Get("d"),
		URL:         tm.Get("url"),
		AddressRefs: tm.List("a"),
		EventRefs:   tm.List("e"),
		Notes:       ev.Content,
		NotesHTML:   n.html(ev.Content),
		CreatedAt:   int64(ev.CreatedAt),
	}
}

// ParseFileMetadata projects a kind-1063 event into a FileMetadata record.
func (n *Normalizer) ParseFileMetadata(ev *nostr.Event) types.FileMetadata {
	tm := NewTagMap(ev.Tags)
	return types.FileMetadata{
		ID:        ev.ID,
		PubKey:    ev.PubKey,
		Npub:      Npub(ev.PubKey),
		URL:       tm.Get("url"),
		MimeType:  tm.Get("m"),
		Hash:      tm.Get("x"),
		Size:      tm.Get("size"),
		Version:   tm.Get("version"),
		CreatedAt: int64(ev.CreatedAt),
	}
}

// ParseZapReceipt projects a kind-9735 event into a ZapReceipt. The amount
// comes from the embedded BOLT11 invoice; the zap comment and the sender
// pubkey come from the embedded description sub-record, which is the JSON
// of the original zap request.
func (n *Normalizer) ParseZapReceipt(ev *nostr.Event) types.ZapReceipt {
	tm := NewTagMap(ev.Tags)
	invoice := tm.Get("bolt11")

	var description, sender string
	if desc := tm.Get("description"); desc != "" && gjson.Valid(desc) {
		req := gjson.Parse(desc)
		description = req.Get("content").String()
		sender = req.Get("pubkey").String()
	}

	receipt := types.ZapReceipt{
		ID:            ev.ID,
		PubKey:        ev.PubKey,
		SenderPubKey:  sender,
		AmountSats:    InvoiceAmountSats(invoice),
		Description:   description,
		InvoiceString: invoice,
		Preimage:      tm.Get("preimage"),
		CreatedAt:     int64(ev.CreatedAt),
	}
	if sender != "" {
		receipt.SenderNpub = Npub(sender)
	}
	return receipt
}

// ParseComment projects a kind-1111 event into a Comment record. Uppercase
// tags reference the thread root; lowercase tags reference the direct
// parent. A comment is a reply when its parent kind is the comment kind
// itself.
func (n *Normalizer) ParseComment(ev *nostr.Event) types.Comment {
	tm := NewTagMap(ev.Tags)
	return types.Comment{
		ID:            ev.ID,
		PubKey:        ev.PubKey,
		Npub:          Npub(ev.PubKey),
		Content:       ev.Content,
		ContentHTML:   n.html(ev.Content),
		RootAddress:   tm.Get("A"),
		RootKind:      tm.Get("K"),
		RootAuthor:    tm.Get("P"),
		ThreadVersion: tm.Get("v"),
		ParentAddress: tm.Get("a"),
		ParentID:      tm.Get("e"),
		ParentKind:    tm.Get("k"),
		ParentAuthor:  tm.Get("p"),
		IsReply:       tm.Get("k") == "1111",
		CreatedAt:     int64(ev.CreatedAt),
	}
}

// stackDescription is the placeholder used until curators publish stack
// descriptions of their own.
const stackDescription = "A curated collection of apps for your needs."

// ParseAppStack projects a kind-30267 event into an AppStack. The stack
// title lives in the content body; app references are the "a" tags whose
// coordinate points at an app event.
func (n *Normalizer) ParseAppStack(ev *nostr.Event) types.AppStack {
	tm := NewTagMap(ev.Tags)

	var refs []types.AddressCoordinate
	for _, v := range tm.List("a") {
		coord, ok := types.ParseAddressCoordinate(v)
		if !ok || coord.Kind != types.KindApp {
			continue
		}
		refs = append(refs, coord)
	}

	return types.AppStack{
		ID:          ev.ID,
		PubKey:      ev.PubKey,
		Identifier:  tm.Get("d"),
		Name:        ev.Content,
		Description: stackDescription,
		AppRefs:     refs,
		CreatedAt:   int64(ev.CreatedAt),
	}
}

// ParseProfile projects a kind-0 metadata event into a Profile record.
func (n *Normalizer) ParseProfile(ev *nostr.Event) types.Profile {
	body := contentBody(ev)
	name := firstString(body, "name", "display_name")
	display := firstString(body, "display_name", "name")
	return types.Profile{
		PubKey:      ev.PubKey,
		Name:        name,
		DisplayName: display,
		Picture:     firstString(body, "picture"),
		About:       firstString(body, "about"),
		NIP05:       firstString(body, "nip05"),
		Lud16:       firstString(body, "lud16"),
		Lud06:       firstString(body, "lud06"),
		CreatedAt:   int64(ev.CreatedAt),
	}
}
