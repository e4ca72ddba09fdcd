// Package messaging moves email and SMS notifications through RabbitMQ.
//
// The API publishes model.Notification values to a topic exchange under
// notify.email or notify.sms. cmd/notifier consumes the queue and hands each
// message to a Notifier (SMTP for email, the log for SMS).
//
// Acknowledgement rules:
//
//	malformed or invalid body  -> Nack without requeue (dead-lettered)
//	delivery error, first try  -> Nack with requeue
//	delivery error, redelivery -> Nack without requeue
//	delivered                  -> Ack
package messaging
