package issuance

import (
	"github.com/kokukuma/mdoc-issuance/proofing"
)

// Node ids of DefaultWorkflow. Question nodes are named after the mDL data
// element their answer becomes.
const (
	NodeTerms            = "tos"
	NodePath             = "path"
	NodePassportTunnel   = "passport_nfc"
	NodePassportVerified = "passport_verified"
	NodePassportPassive  = "passport_passive"
	NodeGivenName        = "given_name"
	NodeFamilyName       = "family_name"
	NodeBirthDate        = "birth_date"
	NodeConfirm          = "confirm"

	ChoicePassport = "passport"
	ChoiceManual   = "manual"
)

var passportDataGroups = []int{1, 2, 14}

// DefaultWorkflow asks for the terms, then proofs either with a passport
// chip or with typed-in details, and ends with a confirmation.
func DefaultWorkflow() (*proofing.Graph, error) {
	return proofing.Create(func(b *proofing.Builder) {
		b.Message(NodeTerms, "By continuing you agree to the terms of service.", "Continue", "Cancel")
		b.Choice(NodePath, "How would you like to prove your identity?", "Continue", func(c *proofing.Choices) {
			c.On(ChoicePassport, "Scan the chip in my passport", func(b *proofing.Builder) {
				b.IcaoTunnel(NodePassportTunnel, passportDataGroups, func(ic *proofing.IcaoChoices) {
					ic.WhenAuthenticated(func(b *proofing.Builder) {
						b.Message(NodePassportVerified, "Your passport chip was verified.", "Continue", "")
					})
					ic.WhenNotAuthenticated(func(b *proofing.Builder) {
						b.IcaoPassiveAuthentication(NodePassportPassive, passportDataGroups)
					})
				})
			})
			c.On(ChoiceManual, "Enter my details", func(b *proofing.Builder) {
				b.Question(NodeGivenName, "Given name", "", "Next")
				b.Question(NodeFamilyName, "Family name", "", "Next")
				b.Question(NodeBirthDate, "Date of birth (YYYY-MM-DD)", "", "Next")
			})
		})
		b.Message(NodeConfirm, "Your credential is ready to be issued.", "Finish", "")
	})
}
