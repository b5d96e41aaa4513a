/*
Package ddns keeps Netlify DNS "A" records pointed at the current public IP address.

Usage will always start with [ddns.New],
which returns a [Client] for one or more managed domains.
New requires at least one domain name and a [Provider] implementation,
normally registered with [UsingNetlify].
Additional client configuration options are listed in the docs for New.

A [Client] can run a single update pass with [Client.RunDDNS]
or keep records in sync until its context is cancelled with [Client.Run].

Zones are located by taking the last two labels of a hostname,
so names under multi-label public suffixes such as "co.uk" are not supported.
*/
package ddns
