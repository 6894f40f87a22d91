package hubspot

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Company is a typed view of a company record.
type Company struct {
	City         *string `mapstructure:"city"`
	Country      *string `mapstructure:"country"`
	Domain       *string `mapstructure:"domain"`
	ID           string  `mapstructure:"-"`
	Industry     *string `mapstructure:"industry"`
	LastModified *string `mapstructure:"hs_lastmodifieddate"`
	Name         *string `mapstructure:"name"`
	State        *string `mapstructure:"state"`
}

// Contact is a typed view of a contact record.
type Contact struct {
	Company      *string `mapstructure:"company"`
	Email        *string `mapstructure:"email"`
	FirstName    *string `mapstructure:"firstname"`
	ID           string  `mapstructure:"-"`
	LastModified *string `mapstructure:"lastmodifieddate"`
	LastName     *string `mapstructure:"lastname"`
	Phone        *string `mapstructure:"phone"`
}

// Deal is a typed view of a deal record.
type Deal struct {
	Amount       *string `mapstructure:"amount"`
	CloseDate    *string `mapstructure:"closedate"`
	DealName     *string `mapstructure:"dealname"`
	DealStage    *string `mapstructure:"dealstage"`
	ID           string  `mapstructure:"-"`
	LastModified *string `mapstructure:"hs_lastmodifieddate"`
	Pipeline     *string `mapstructure:"pipeline"`
}

// Ticket is a typed view of a ticket record.
type Ticket struct {
	Category      *string `mapstructure:"hs_ticket_category"`
	Content       *string `mapstructure:"content"`
	ID            string  `mapstructure:"-"`
	LastModified  *string `mapstructure:"hs_lastmodifieddate"`
	PipelineStage *string `mapstructure:"hs_pipeline_stage"`
	Priority      *string `mapstructure:"hs_ticket_priority"`
	Subject       *string `mapstructure:"subject"`
}

// DecodeCompany decodes the properties of a company record.
func DecodeCompany(obj Object) (*Company, error) {
	c := &Company{ID: obj.ID}
	if err := decodeProperties(obj, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DecodeContact decodes the properties of a contact record.
func DecodeContact(obj Object) (*Contact, error) {
	c := &Contact{ID: obj.ID}
	if err := decodeProperties(obj, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DecodeDeal decodes the properties of a deal record.
func DecodeDeal(obj Object) (*Deal, error) {
	d := &Deal{ID: obj.ID}
	if err := decodeProperties(obj, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DecodeTicket decodes the properties of a ticket record.
func DecodeTicket(obj Object) (*Ticket, error) {
	t := &Ticket{ID: obj.ID}
	if err := decodeProperties(obj, t); err != nil {
		return nil, err
	}
	return t, nil
}

// decodeProperties copies the non-nil record properties into out.
// Unknown properties are ignored.
func decodeProperties(obj Object, out any) error {
	props := make(map[string]any, len(obj.Properties))
	for k, v := range obj.Properties {
		if v != nil {
			props[k] = *v
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("creating property decoder: %w", err)
	}

	if err := decoder.Decode(props); err != nil {
		return fmt.Errorf("decoding properties of record %s: %w", obj.ID, err)
	}

	return nil
}
