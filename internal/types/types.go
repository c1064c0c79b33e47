// Package types holds the domain records derived from raw Nostr events,
// shared kind numbers, and the relay-set configuration used across the SDK.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ------------------------------
// Event kinds
// ------------------------------

const (
	KindProfile      = 0
	KindFileMetadata = 1063
	KindComment      = 1111
	KindZapRequest   = 9734
	KindZapReceipt   = 9735
	KindRelease      = 30063
	KindAppStack     = 30267
	KindApp          = 32267
)

// ------------------------------
// Relay sets
// ------------------------------

// RelaySet groups the relays used for each class of query. The catalog relay
// holds app/release/file events; profiles and zap receipts live on the wider
// social relays; comments only go to social relays.
type RelaySet struct {
	Catalog  []string
	Profiles []string
	Social   []string
	Comments []string
}

// DefaultRelaySet returns the production relay configuration.
func DefaultRelaySet() RelaySet {
	social := []string{
		"wss://relay.damus.io",
		"wss://relay.primal.net",
		"wss://relay.nostr.band",
		"wss://nos.lol",
	}
	catalog := []string{"wss://relay.zapstore.dev"}
	profiles := UnionRelays([]string{"wss://relay.vertexlab.io"}, catalog, social)
	return RelaySet{
		Catalog:  catalog,
		Profiles: profiles,
		Social:   social,
		Comments: social,
	}
}

// UnionRelays merges relay lists preserving first-seen order and dropping
// duplicates and empty entries.
func UnionRelays(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, url := range list {
			if url == "" {
				continue
			}
			if _, ok := seen[url]; ok {
				continue
			}
			seen[url] = struct{}{}
			out = append(out, url)
		}
	}
	return out
}

// ------------------------------
// Address coordinates
// ------------------------------

// AddressCoordinate is the composite "kind:pubkey:identifier" key that
// references a parameterized event.
type AddressCoordinate struct {
	Kind       int
	PubKey     string
	Identifier string
}

// String renders the coordinate in tag-value form.
func (a AddressCoordinate) String() string {
	return fmt.Sprintf("%d:%s:%s", a.Kind, a.PubKey, a.Identifier)
}

// AppAddress returns the coordinate of an app event.
func AppAddress(pubkey, dTag string) AddressCoordinate {
	return AddressCoordinate{Kind: KindApp, PubKey: pubkey, Identifier: dTag}
}

// ParseAddressCoordinate parses a "kind:pubkey:identifier" value. The
// identifier may itself contain colons.
func ParseAddressCoordinate(s string) (AddressCoordinate, bool) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return AddressCoordinate{}, false
	}
	kind, err := strconv.Atoi(parts[0])
	if err != nil {
		return AddressCoordinate{}, false
	}
	return AddressCoordinate{Kind: kind, PubKey: parts[1], Identifier: parts[2]}, true
}

// ------------------------------
// Domain records
// ------------------------------

// App is the typed projection of a kind-32267 event.
type App struct {
	ID              string   `json:"id"`
	PubKey          string   `json:"pubkey"`
	Npub            string   `json:"npub"`
	DTag            string   `json:"dTag"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	DescriptionHTML string   `json:"descriptionHtml"`
	Icon            string   `json:"icon"`
	Images          []string `json:"images"`
	URL             string   `json:"url"`
	DownloadURL     string   `json:"downloadUrl"`
	Repository      string   `json:"repository"`
	Category        string   `json:"category"`
	License         string   `json:"license"`
	Developer       string   `json:"developer"`
	Platform        string   `json:"platform"`
	Requirements    string   `json:"requirements,omitempty"`
	Changelog       string   `json:"changelog,omitempty"`
	Price           string   `json:"price,omitempty"`
	Rating          string   `json:"rating,omitempty"`
	Downloads       string   `json:"downloads,omitempty"`
	Slug            string   `json:"slug"`
	CreatedAt       int64    `json:"createdAt"`
}

// Address returns the app's parameterized-event coordinate.
func (a App) Address() AddressCoordinate { return AppAddress(a.PubKey, a.DTag) }

// Release is the typed projection of a kind-30063 event.
type Release struct {
	ID          string   `json:"id"`
	PubKey      string   `json:"pubkey"`
	Npub        string   `json:"npub"`
	DTag        string   `json:"dTag"`
	URL         string   `json:"url"`
	AddressRefs []string `json:"addressRefs"`
	EventRefs   []string `json:"eventRefs"`
	Notes       string   `json:"notes"`
	NotesHTML   string   `json:"notesHtml"`
	CreatedAt   int64    `json:"createdAt"`
}

// FileMetadata is the typed projection of a kind-1063 event.
type FileMetadata struct {
	ID        string `json:"id"`
	PubKey    string `json:"pubkey"`
	Npub      string `json:"npub"`
	URL       string `json:"url"`
	MimeType  string `json:"mimeType"`
	Hash      string `json:"hash"`
	Size      string `json:"size"`
	Version   string `json:"version"`
	CreatedAt int64  `json:"createdAt"`
}

// ZapReceipt is the typed projection of a kind-9735 event.
type ZapReceipt struct {
	ID            string `json:"id"`
	PubKey        string `json:"pubkey"`
	SenderPubKey  string `json:"senderPubkey"`
	SenderNpub    string `json:"senderNpub,omitempty"`
	AmountSats    int64  `json:"amountSats"`
	Description   string `json:"description"`
	InvoiceString string `json:"bolt11"`
	Preimage      string `json:"preimage"`
	CreatedAt     int64  `json:"createdAt"`
}

// ZapSummary aggregates the receipts fetched for one app.
type ZapSummary struct {
	Zaps      []ZapReceipt `json:"zaps"`
	TotalSats int64        `json:"totalSats"`
	Count     int          `json:"count"`
}

// Comment is the typed projection of a kind-1111 event. Root references use
// the uppercase tag names, parent (reply) references the lowercase ones.
type Comment struct {
	ID            string `json:"id"`
	PubKey        string `json:"pubkey"`
	Npub          string `json:"npub"`
	Content       string `json:"content"`
	ContentHTML   string `json:"contentHtml"`
	RootAddress   string `json:"rootAddress"`
	RootKind      string `json:"rootKind"`
	RootAuthor    string `json:"rootAuthor"`
	ThreadVersion string `json:"threadVersion"`
	ParentAddress string `json:"parentAddress"`
	ParentID      string `json:"parentId"`
	ParentKind    string `json:"parentKind"`
	ParentAuthor  string `json:"parentAuthor"`
	IsReply       bool   `json:"isReply"`
	CreatedAt     int64  `json:"createdAt"`
}

// AppStack is the typed projection of a kind-30267 curated collection.
type AppStack struct {
	ID          string              `json:"id"`
	PubKey      string              `json:"pubkey"`
	Identifier  string              `json:"identifier"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	AppRefs     []AddressCoordinate `json:"appRefs"`
	CreatedAt   int64               `json:"createdAt"`
}

// Profile is the typed projection of a kind-0 metadata event.
type Profile struct {
	PubKey      string `json:"pubkey"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Picture     string `json:"picture"`
	About       string `json:"about"`
	NIP05       string `json:"nip05"`
	Lud16       string `json:"lud16"`
	Lud06       string `json:"lud06"`
	CreatedAt   int64  `json:"createdAt"`
}

// ------------------------------
// Zap handshake types
// ------------------------------

// ZapEndpoint is the LNURL-pay endpoint resolved for one zap attempt. It is
// never cached across attempts; the callback must be freshly verified.
type ZapEndpoint struct {
	Callback    string `json:"callback"`
	MinSendable int64  `json:"minSendable"`
	MaxSendable int64  `json:"maxSendable"`
	AllowsNostr bool   `json:"allowsNostr"`
	NostrPubKey string `json:"nostrPubkey"`
	LNURL       string `json:"lnurlEndpoint"`
}

// Invoice is the callback response carrying a payable payment request.
type Invoice struct {
	PaymentRequest string `json:"pr"`
	SuccessAction  any    `json:"successAction,omitempty"`
}
