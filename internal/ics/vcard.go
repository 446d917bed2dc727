package ics

import (
	"github.com/emersion/go-vcard"

	"caldr/internal/core"
)

// ContactFromCard maps a parsed vCard onto the contact model. Only the
// fields the autocomplete surface needs are carried: display name,
// emails, phone numbers, UID. A card without a formatted name falls
// back to its first email so every contact stays addressable.
func ContactFromCard(card vcard.Card) core.Contact {
	c := core.Contact{
		UID:    card.Value(vcard.FieldUID),
		Name:   card.PreferredValue(vcard.FieldFormattedName),
		Emails: card.Values(vcard.FieldEmail),
		Phones: card.Values(vcard.FieldTelephone),
	}
	if c.Name == "" && len(c.Emails) > 0 {
		c.Name = c.Emails[0]
	}
	return c
}

// CardFromContact builds a v4 vCard for a contact.
func CardFromContact(c core.Contact) vcard.Card {
	card := make(vcard.Card)
	if c.Name != "" {
		card.SetValue(vcard.FieldFormattedName, c.Name)
	}
	for _, e := range c.Emails {
		card.AddValue(vcard.FieldEmail, e)
	}
	for _, p := range c.Phones {
		card.AddValue(vcard.FieldTelephone, p)
	}
	if c.UID != "" {
		card.SetValue(vcard.FieldUID, c.UID)
	}
	vcard.ToV4(card)
	return card
}
