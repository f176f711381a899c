// Command expiry-sweeper periodically drops overdue reservations from the head of a set of queues.
//
// Usage:
//
//	expiry-sweeper -resources <uuid>,<uuid> [-interval 1m] [-once] [-metrics-addr :9090]
//
// The PostgreSQL DSN is read from RESERVATIONQUEUE_POSTGRES_DSN. When RESERVATIONQUEUE_REDIS_URL is set,
// every sweep of a queue holds a Redis lock for that resource, otherwise queues are serialized in-process.
package main
