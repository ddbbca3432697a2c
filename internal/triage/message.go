package triage

import (
	"context"
	"strings"

	"github.com/wolfman30/contractor-sms-triage/internal/conversations"
	"github.com/wolfman30/contractor-sms-triage/internal/projects"
)

// Channel is the transport an inbound message arrived on.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"

	whatsAppPrefix = "whatsapp:"
)

// DetectChannel reports whatsapp when the sender address mentions it anywhere.
func DetectChannel(from string) Channel {
	if strings.Contains(strings.ToLower(from), "whatsapp") {
		return ChannelWhatsApp
	}
	return ChannelSMS
}

// StripChannelPrefix returns the bare phone number of a provider address.
func StripChannelPrefix(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(strings.ToLower(addr), whatsAppPrefix) {
		return strings.TrimSpace(addr[len(whatsAppPrefix):])
	}
	return addr
}

// Address renders a bare phone number as an address on this channel.
func (c Channel) Address(phone string) string {
	phone = StripChannelPrefix(phone)
	if c == ChannelWhatsApp && phone != "" {
		return whatsAppPrefix + phone
	}
	return phone
}

// InboundMessage is one client message as received from the provider.
type InboundMessage struct {
	From    string
	To      string
	Body    string
	Channel Channel
}

// SenderPhone is the bare sender number used for project lookup.
func (m InboundMessage) SenderPhone() string {
	return StripChannelPrefix(m.From)
}

// AIReply is a parsed model answer. Confidence is within [0,1].
type AIReply struct {
	Text       string
	Confidence float64
	// Degraded is set when the reply was salvaged from non-JSON output.
	Degraded bool
	// Cached is set when the reply came from the reply cache.
	Cached bool
}

// Credentials are the provider credentials a reply is sent with.
// Empty fields fall back to the sender's defaults.
type Credentials struct {
	AccountSID string
	AuthToken  string
}

// OutboundReply is an automated answer addressed back to the client.
type OutboundReply struct {
	From        string
	To          string
	Body        string
	Channel     Channel
	Credentials Credentials
}

// EscalationNotice tells a contractor a client message needs a human.
type EscalationNotice struct {
	Contractor  projects.ContractorProfile
	ProjectID   string
	ProjectName string
	ClientName  string
	From        string
	Preview     string
	Intent      Intent
	Reason      Reason
}

// ProjectLookup resolves the project a client phone belongs to.
type ProjectLookup interface {
	FindByClientPhone(ctx context.Context, phone string) (*projects.Project, error)
}

// ConversationLog persists audit records.
type ConversationLog interface {
	Append(ctx context.Context, rec *conversations.Record) error
}

// Responder drafts an answer grounded in the project snapshot.
type Responder interface {
	Respond(ctx context.Context, message string, snapshot ProjectSnapshot) (AIReply, error)
}

// ReplySender delivers an automated answer to the client.
type ReplySender interface {
	SendReply(ctx context.Context, reply OutboundReply) error
}

// ContractorNotifier alerts the contractor about an escalation.
type ContractorNotifier interface {
	NotifyContractor(ctx context.Context, notice EscalationNotice) error
}

// MaskPhone keeps the last four digits of an address for logs.
func MaskPhone(addr string) string {
	phone := StripChannelPrefix(addr)
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
