package flow

import (
	"fmt"
	"strings"

	"github.com/placepilot/placepilot/internal/domain"
)

const introPrompt = `Let's add a new place to help others discover it.

I'll guide you through a few short steps: location, name, category, address, contact, hours, chain status, features and photos. You can type "cancel" at any point.

First, share the place's location, or type "skip" to enter the address manually.`

const locationReprompt = `Share a location pin for the place, or type "skip" to enter the address manually.`

const namePrompt = `Great! Now, please enter the name of the place:`

const nameReprompt = `Please enter a valid place name (at least 2 characters).`

const categoryPrompt = `Please select or type the category:`

const addressPrompt = `Please enter the address of the place:`

const addressReprompt = `Please provide a more complete address (at least 10 characters).`

const contactPrompt = `Contact information (optional).

Format: phone, website, email
Example: +1234567890, www.example.com, contact@example.com

Or type "skip" to continue without contact info.`

const contactReprompt = `That contact info looks invalid or incomplete.
Please try again with the format: phone, website, email
(Type "skip" to skip.)`

const contactTransient = `I couldn't check that contact info right now. Please try again in a moment, or type "skip".`

const hoursPrompt = `When is the place open? Choose "Open 24/7" or describe the hours, e.g. "Mon-Fri 9am to 6pm".`

const hoursReprompt = `Sorry, I couldn't make sense of those hours.
Please try again, e.g. "Mon-Fri 9am to 6pm", or use "24/7" for always open.`

const hoursTransient = `I couldn't parse those hours right now. Please try again in a moment, or use "24/7".`

const chainPrompt = `Is this place part of a chain?`

const chainReprompt = `Is this place part of a chain? Please answer yes or no.`

const attributesPrompt = `Select all applicable features, one per message (e.g. "wifi", "add parking", "remove atm"). Type "done" when finished.`

const attributesReprompt = `Tell me a feature to add (e.g. "wifi"), "remove <feature>" to drop one, or "done" to continue.`

const photosPrompt = `Please send photos of the place (up to 3):
1. Storefront/entrance
2. Interior
3. Special features

Type "skip" if you don't have photos.`

const photosReprompt = `Send up to 3 photos, or type "skip" / "done" to continue.`

const confirmReprompt = `Please reply "yes" to submit, or "cancel" to discard.`

const submitFailedText = `Sorry, there was an error saving your place. Nothing was lost - reply "yes" to retry, or "cancel" to discard.`

const cancelledText = `Operation cancelled. Say "add a place" whenever you want to start again.`

const discardedText = `Okay, I discarded the draft. Say "add a place" to start over.`

var categoryChoices = []domain.QuickReply{
	{Label: "Restaurant", Data: "category:restaurant"},
	{Label: "Cafe", Data: "category:cafe"},
	{Label: "Shop", Data: "category:shop"},
	{Label: "Bar", Data: "category:bar"},
	{Label: "Hotel", Data: "category:hotel"},
	{Label: "Entertainment", Data: "category:entertainment"},
	{Label: "Services", Data: "category:services"},
	{Label: "Other", Data: "category:other"},
}

var attributeChoices = []domain.QuickReply{
	{Label: "WiFi", Data: "attr:wifi"},
	{Label: "Parking", Data: "attr:parking"},
	{Label: "ATM", Data: "attr:atm"},
	{Label: "Delivery", Data: "attr:delivery"},
	{Label: "Reservations", Data: "attr:reservations"},
	{Label: "Outdoor Seating", Data: "attr:outdoor seating"},
	{Label: "Credit Cards", Data: "attr:credit cards"},
	{Label: "Restroom", Data: "attr:restroom"},
	{Label: "Done", Data: "attrs_done"},
}

var yesNoChain = []domain.QuickReply{
	{Label: "Yes", Data: "chain_yes"},
	{Label: "No", Data: "chain_no"},
}

var confirmChoices = []domain.QuickReply{
	{Label: "Yes, submit", Data: "confirm_yes"},
	{Label: "No, discard", Data: "confirm_no"},
}

// summary renders the confirmation text shown before submission.
func summary(d *domain.Draft) string {
	chain := "No"
	if d.Chain != nil && *d.Chain {
		chain = "Yes"
	}
	contact := "skipped"
	if d.Contact != nil {
		var parts []string
		if d.Contact.Phone != "" {
			parts = append(parts, d.Contact.Phone)
		}
		if d.Contact.Website != "" {
			parts = append(parts, d.Contact.Website)
		}
		if d.Contact.Email != "" {
			parts = append(parts, d.Contact.Email)
		}
		contact = strings.Join(parts, ", ")
	}
	attrs := "none"
	if len(d.Attributes) > 0 {
		attrs = strings.Join(d.Attributes, ", ")
	}

	return fmt.Sprintf(
		"Place summary:\n\n"+
			"Name: %s\n"+
			"Category: %s\n"+
			"Address: %s\n"+
			"Contact: %s\n"+
			"Hours: %s\n"+
			"Chain: %s\n"+
			"Features: %s\n"+
			"Photos: %d uploaded\n\n"+
			"Is this information correct?",
		d.Name, d.Category, d.Address, contact, d.Hours, chain, attrs, len(d.PhotoIDs),
	)
}
