package services

import "reputely/models"

// CanEmail reports whether a campaign may email this customer: the channel
// is on, the customer has an address and has not opted out. Pure function;
// re-evaluated every dispatch pass so an opt-out landing between passes
// halts further sends.
func CanEmail(campaign *models.Campaign, customer *models.Customer) bool {
	return campaign.EmailEnabled && customer.Email != "" && !customer.OptOutEmail
}

// CanSMS is the SMS counterpart of CanEmail.
func CanSMS(campaign *models.Campaign, customer *models.Customer) bool {
	return campaign.SMSEnabled && customer.Phone != "" && !customer.OptOutSMS
}

// BuildTokens assembles the substitution map for campaign templates.
func BuildTokens(customer *models.Customer, businessName, reviewLink string) map[string]string {
	return map[string]string{
		"firstName":    customer.FirstName,
		"lastName":     customer.LastName,
		"customerName": customer.FullName(),
		"businessName": businessName,
		"reviewLink":   reviewLink,
	}
}
