/*
Package topicbus provides an in-process, topic-based message bus.

# Overview

A Router reads envelopes from one bounded ingress channel and fans each one
out to every subscriber of its destination topic. Topics are bounded
broadcast channels: a slow subscriber never blocks the router, it loses the
oldest envelopes instead and is told how many it missed.

The bus is generic over the payload type. The router never inspects the
payload; it only needs value semantics.

# Basic Usage

Create a router, subscribe, then run the loop in its own goroutine:

	router := topicbus.NewRouter[string](topicbus.RouterConfig{})

	rx, err := router.Subscribe("") // default topic
	if err != nil {
	    log.Fatal(err)
	}

	ingress := make(chan topicbus.Envelope[string], config.DefaultIngressBuffer)
	go router.Run(ingress)

	ingress <- topicbus.New("", "lorem ipsum")
	env, err := rx.Recv(ctx)
	data, _ := env.Data() // "lorem ipsum"

	ingress <- topicbus.StopSignal[string]("")

# Topics

NewRouter registers only config.DefaultTopic. NewRouterWithTopics registers
exactly the topics it is given:

	router, err := topicbus.NewRouterWithTopics[Order](topicbus.RouterConfig{}, []config.TopicSpec{
	    config.Topic("orders", 4),
	    config.Topic("alerts", 1),
	})

Envelopes without a topic go to config.DefaultTopic. Envelopes for a topic
that is not registered are dropped.

# Stopping

The loop ends when it reads a stop envelope (StopSignal) or when ingress is
closed. The stop envelope is consumed by the router and never delivered.
Anything queued behind it stays in the ingress channel. Set
RouterConfig.CloseOnStop to close every topic when the loop ends, so
subscribers see ErrClosed after draining.

# Lagging Receivers

Each topic keeps its last capacity envelopes. A receiver that falls further
behind gets a *LagError from Recv and resumes at the oldest envelope still
buffered:

	env, err := rx.Recv(ctx)
	var lag *topicbus.LagError
	if errors.As(err, &lag) {
	    log.Printf("missed %d envelopes", lag.Skipped)
	}

# Observability

RouterConfig accepts a slog.Logger, an observability.MetricsRecorder, an
observability.SpanManager and a deadletter.Store. All are optional.
*/
package topicbus
