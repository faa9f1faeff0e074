package mqtt

// Responder is the part of MqttCommunicator that serves requests
type Responder interface {
	On(name string, callback RequestHandler)
}

// ControlHandlers are the operations other services may request
type ControlHandlers struct {
	// Status returns a snapshot of the moderation state
	Status func() interface{}
	// Tick queues an immediate link check
	Tick func() error
}

// RegisterControl serves the "status" and "tick" requests
func RegisterControl(r Responder, h ControlHandlers) {
	if h.Status != nil {
		r.On("status", func(map[string]interface{}) (interface{}, error) {
			return h.Status(), nil
		})
	}
	if h.Tick != nil {
		r.On("tick", func(map[string]interface{}) (interface{}, error) {
			if err := h.Tick(); err != nil {
				return nil, err
			}
			return map[string]bool{"queued": true}, nil
		})
	}
}
