package notifications

import "context"

// dispatch sends one change and journals the attempt. Failures are logged
// and returned in the outcome; they never abort the tick.
func (d *Detector) dispatch(ctx context.Context, change Change) Outcome {
	c := change.Customer
	outcome := Outcome{
		CustomerID: c.ID,
		Name:       c.Name,
		Previous:   change.Previous,
		Points:     c.Points,
	}

	deliveryID, err := d.notifier.Notify(ctx, change)
	outcome.DeliveryID = deliveryID

	status := DeliverySent
	if err != nil {
		status = DeliveryFailed
		outcome.Error = err.Error()
		d.logger.Error("Error triggering webhook",
			"customer_id", c.ID, "delivery_id", deliveryID, "error", err)
	} else {
		d.logger.Info("Webhook triggered",
			"customer_id", c.ID, "name", c.Name,
			"points", c.Points.String(), "delivery_id", deliveryID)
	}

	if d.journal != nil {
		jerr := d.journal.Record(ctx, Delivery{
			ID:          deliveryID,
			CustomerID:  c.ID,
			Name:        c.Name,
			Previous:    change.Previous,
			Points:      c.Points,
			Status:      status,
			Error:       outcome.Error,
			AttemptedAt: change.ObservedAt,
		})
		if jerr != nil {
			d.logger.Warn("Failed to journal webhook delivery",
				"customer_id", c.ID, "delivery_id", deliveryID, "error", jerr)
		}
	}

	return outcome
}
