package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/deskaudio/pulse"
	"github.com/deskaudio/pulse/proto"
)

func main() {
	sinkName := flag.String("sink", pulse.DefaultSinkName, "Sink name to watch volume changes")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := pulse.NewClient(ctx, pulse.ClientApplicationName("subscription demo"))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ch := make(chan struct{}, 1)
	unregister := client.Observe(func(ev pulse.Event) {
		log.Printf("%s %s index=%d", ev.Type, ev.Facility, ev.Index)
		if ev.Raw.GetType() == proto.EventChange && ev.Raw.GetFacility() == proto.EventSink {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	})
	defer unregister()

	if err := client.Subscribe(ctx, proto.SubscriptionMaskAll); err != nil {
		log.Fatal(err)
	}

	for {
		select {
		case <-ch:
		case <-client.Done():
			log.Fatal(client.Err())
		case <-ctx.Done():
			return
		}
		sink, err := client.Sink(ctx, proto.ByName(*sinkName))
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("%s volume: %.0f%%", *sinkName, sink.Volume().Percent())
	}
}
