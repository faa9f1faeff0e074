// Package mqtt connects the bot to an MQTT broker. Moderation actions are
// published on the action bus and other services can query the bot with
// request/response messages.
package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// TopicRoot prefixes every topic used by the bot
const TopicRoot = "channelguard"

const publishTimeout = 5 * time.Second

func requestTopic(name string) string {
	return fmt.Sprintf("%s/request/%s", TopicRoot, name)
}

func responseTopic(name, correlationID string) string {
	return fmt.Sprintf("%s/response/%s/%s", TopicRoot, name, correlationID)
}

// MqttRequest represents an MQTT request message
type MqttRequest struct {
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload,omitempty"`
}

// MqttResponse represents an MQTT response message
type MqttResponse struct {
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

// MqttCommunicator handles MQTT communication
type MqttCommunicator struct {
	client           mqtt.Client
	responseHandlers map[string]func(MqttResponse)
	// requestHandlers are subscribed again on every (re)connect
	requestHandlers map[string]RequestHandler
	mu              sync.RWMutex
	clientID        string
}

var (
	communicator *MqttCommunicator
	once         sync.Once
)

// Init initializes the global MQTT communicator
func Init(host, port, username, password, clientID string) *MqttCommunicator {
	once.Do(func() {
		communicator = NewMqttCommunicator(host, port, username, password, clientID)
	})
	return communicator
}

// Get returns the global MQTT communicator
func Get() *MqttCommunicator {
	return communicator
}

// NewMqttCommunicator creates a new MQTT communicator
func NewMqttCommunicator(host, port, username, password, clientID string) *MqttCommunicator {
	mc := &MqttCommunicator{
		responseHandlers: make(map[string]func(MqttResponse)),
		requestHandlers:  make(map[string]RequestHandler),
		clientID:         clientID,
	}

	uniqueID := fmt.Sprintf("%s_%s", clientID, uuid.New().String())

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(uniqueID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", clientID), "MQTT")
			mc.resubscribe()
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	mc.client = mqtt.NewClient(opts)

	// With connect retry the token only completes once the broker answers
	token := mc.client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		logger.Warn("Broker MQTT no disponible, se reintentará en segundo plano", "MQTT")
	} else if token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}

	return mc
}

// Destroy closes the MQTT connection
func (mc *MqttCommunicator) Destroy() {
	if mc.client != nil && mc.client.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
	} else {
		logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (mc *MqttCommunicator) IsConnected() bool {
	return mc.client != nil && mc.client.IsConnected()
}

// Publish sends a message to a topic
func (mc *MqttCommunicator) Publish(topic string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, 0, false, jsonData)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// Request sends a request and waits for a response
func (mc *MqttCommunicator) Request(topic string, payload interface{}, timeout time.Duration) (interface{}, error) {
	correlationID := uuid.New().String()
	reqTopic := requestTopic(topic)
	respTopic := responseTopic(topic, correlationID)

	responseChan := make(chan MqttResponse, 1)
	errChan := make(chan error, 1)

	// Set up response handler
	mc.mu.Lock()
	mc.responseHandlers[correlationID] = func(response MqttResponse) {
		responseChan <- response
	}
	mc.mu.Unlock()

	// Clean up handler when done
	defer func() {
		mc.mu.Lock()
		delete(mc.responseHandlers, correlationID)
		mc.mu.Unlock()
		mc.client.Unsubscribe(respTopic)
	}()

	// Subscribe to response topic
	token := mc.client.Subscribe(respTopic, 0, func(c mqtt.Client, msg mqtt.Message) {
		var response MqttResponse
		if err := json.Unmarshal(msg.Payload(), &response); err != nil {
			errChan <- err
			return
		}

		mc.mu.RLock()
		handler, exists := mc.responseHandlers[response.CorrelationID]
		mc.mu.RUnlock()

		if exists {
			handler(response)
		}
	})

	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("la suscripción a '%s' ha expirado", respTopic)
	}
	if token.Error() != nil {
		return nil, token.Error()
	}

	// Send request
	request := MqttRequest{
		CorrelationID: correlationID,
		Payload:       payload,
	}

	if err := mc.Publish(reqTopic, request); err != nil {
		return nil, err
	}

	// Wait for response or timeout
	select {
	case response := <-responseChan:
		if response.Error != "" {
			return nil, fmt.Errorf("%s", response.Error)
		}
		return response.Data, nil
	case err := <-errChan:
		return nil, err
	case <-time.After(timeout):
		return nil, fmt.Errorf("la petición a '%s' ha expirado (timeout)", topic)
	}
}

// RequestHandler is a function type for handling MQTT requests
type RequestHandler func(payload map[string]interface{}) (interface{}, error)

// On registers a handler for a request topic. Handlers registered while
// the broker is unreachable are subscribed once the connection is up.
func (mc *MqttCommunicator) On(name string, callback RequestHandler) {
	mc.mu.Lock()
	mc.requestHandlers[name] = callback
	mc.mu.Unlock()

	if mc.client.IsConnected() {
		mc.serve(name, callback)
	}
}

// resubscribe restores the request subscriptions after a (re)connect
func (mc *MqttCommunicator) resubscribe() {
	mc.mu.RLock()
	handlers := make(map[string]RequestHandler, len(mc.requestHandlers))
	for name, cb := range mc.requestHandlers {
		handlers[name] = cb
	}
	mc.mu.RUnlock()

	for name, cb := range handlers {
		go mc.serve(name, cb)
	}
}

func (mc *MqttCommunicator) serve(name string, callback RequestHandler) {
	topic := requestTopic(name)

	token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		var request MqttRequest
		if err := json.Unmarshal(msg.Payload(), &request); err != nil {
			logger.Error(fmt.Sprintf("Petición MQTT inválida: %v", err), "MQTT")
			return
		}

		actualTopic := strings.TrimPrefix(msg.Topic(), TopicRoot+"/request/")
		response := answer(request, actualTopic, callback)

		if err := mc.Publish(responseTopic(actualTopic, request.CorrelationID), response); err != nil {
			logger.Error(fmt.Sprintf("Error respondiendo a %s: %v", actualTopic, err), "MQTT")
		}
	})

	if !token.WaitTimeout(publishTimeout) {
		logger.Warn(fmt.Sprintf("Suscripción a %s sin confirmar", topic), "MQTT")
		return
	}
	if token.Error() != nil {
		logger.Error(fmt.Sprintf("Error suscribiendo a %s: %v", topic, token.Error()), "MQTT")
		return
	}
	logger.Debug("Suscrito a "+topic, "MQTT")
}

// Subscribe subscribes to a topic with a message handler
func (mc *MqttCommunicator) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("la suscripción a '%s' ha expirado", topic)
	}
	return token.Error()
}

// Unsubscribe unsubscribes from a topic
func (mc *MqttCommunicator) Unsubscribe(topic string) error {
	token := mc.client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

// answer runs callback for a request and builds the response message
func answer(request MqttRequest, topic string, callback RequestHandler) MqttResponse {
	payloadMap := make(map[string]interface{})
	if pm, ok := request.Payload.(map[string]interface{}); ok && pm != nil {
		payloadMap = pm
	}
	payloadMap["_topic"] = topic

	data, err := callback(payloadMap)
	if err != nil {
		return MqttResponse{CorrelationID: request.CorrelationID, Error: err.Error()}
	}
	return MqttResponse{CorrelationID: request.CorrelationID, Data: data}
}
