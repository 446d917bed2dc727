package ics

import (
	"strings"
	"testing"

	"github.com/emersion/go-vcard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldr/internal/core"
)

func TestContactFromCard(t *testing.T) {
	raw := toCRLF(`BEGIN:VCARD
VERSION:4.0
UID:urn:uuid:ada-1
FN:Ada Lovelace
EMAIL;PREF=1:ada@example.org
EMAIL:lovelace@work.example
TEL:+44 20 7946 0000
END:VCARD
`)
	card, err := vcard.NewDecoder(strings.NewReader(raw)).Decode()
	require.NoError(t, err)

	c := ContactFromCard(card)
	assert.Equal(t, "urn:uuid:ada-1", c.UID)
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, []string{"ada@example.org", "lovelace@work.example"}, c.Emails)
	assert.Equal(t, []string{"+44 20 7946 0000"}, c.Phones)
}

func TestContactFromCardFallsBackToEmail(t *testing.T) {
	card := make(vcard.Card)
	card.AddValue(vcard.FieldEmail, "anon@example.org")

	c := ContactFromCard(card)
	assert.Equal(t, "anon@example.org", c.Name)
}

func TestCardRoundTrip(t *testing.T) {
	in := core.Contact{
		UID:    "contact-7",
		Name:   "Grace Hopper",
		Emails: []string{"grace@example.org"},
		Phones: []string{"+1 555 0100"},
	}

	var buf strings.Builder
	require.NoError(t, vcard.NewEncoder(&buf).Encode(CardFromContact(in)))

	card, err := vcard.NewDecoder(strings.NewReader(buf.String())).Decode()
	require.NoError(t, err)
	out := ContactFromCard(card)
	assert.Equal(t, in.UID, out.UID)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Emails, out.Emails)
	assert.Equal(t, in.Phones, out.Phones)
}
