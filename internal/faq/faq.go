// Package faq answers common customer questions from a fixed rule list.
package faq

import "strings"

// Rule answers when any of its keywords appears in the question.
type Rule struct {
	Topic    string
	Keywords []string
	Answer   string
}

// Answer is a responder reply.
type Answer struct {
	Topic string `json:"topic"`
	Text  string `json:"text"`
}

const DefaultAnswer = "Sorry, I did not catch that. Ask about prices, delivery, minimum order, payment, hours or how to contact us."

// DefaultRules are checked in order; the first match wins.
var DefaultRules = []Rule{
	{
		Topic:    "price",
		Keywords: []string{"price", "cost", "rate", "how much"},
		Answer:   "High grade 101 bricks are Rs 16, CM special Rs 14 and standard NTS Rs 12 per brick. Orders of 50,000 or more get 5% off.",
	},
	{
		Topic:    "minimum",
		Keywords: []string{"minimum", "min order", "smallest", "at least"},
		Answer:   "We recommend at least 2,000 bricks, one full truck. Smaller orders are accepted but delivery costs more per brick.",
	},
	{
		Topic:    "delivery",
		Keywords: []string{"deliver", "delivery", "shipping", "truck", "trip", "distance"},
		Answer:   "Delivery is free within 18 km of the factory. Beyond that it is Rs 1,000 per trip up to 25 km, Rs 1,500 up to 29.9 km and Rs 2,000 further out. One trip carries 2,000 bricks.",
	},
	{
		Topic:    "payment",
		Keywords: []string{"pay", "payment", "cash", "bank", "transfer"},
		Answer:   "Pay cash on delivery or by bank transfer. For bank transfer, attach a photo of the receipt when you book.",
	},
	{
		Topic:    "hours",
		Keywords: []string{"hour", "open", "time", "when"},
		Answer:   "We take orders any time online. Deliveries run Sunday to Friday, 7am to 6pm.",
	},
	{
		Topic:    "contact",
		Keywords: []string{"contact", "phone", "call", "whatsapp", "email"},
		Answer:   "Use the contact form or message us on WhatsApp. We reply within one working day.",
	},
}

type Responder struct {
	rules []Rule
}

// NewResponder uses DefaultRules when rules is empty.
func NewResponder(rules []Rule) *Responder {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Responder{rules: rules}
}

// Ask returns the answer of the first rule whose keyword occurs in question.
func (r *Responder) Ask(question string) Answer {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return Answer{Topic: "default", Text: DefaultAnswer}
	}
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(q, kw) {
				return Answer{Topic: rule.Topic, Text: rule.Answer}
			}
		}
	}
	return Answer{Topic: "default", Text: DefaultAnswer}
}
