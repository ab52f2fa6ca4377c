// Package wemo discovers Belkin WeMo switches on the local network and
// drives them over UPnP SOAP.
//
// Discovery sends an SSDP M-SEARCH for the basicevent service, fetches each
// responder's setup.xml for its friendly name, MAC address and control URL,
// and returns one Switch per device. Switches are identified by MAC so
// renamed or re-addressed devices keep their identity.
//
// State is read and written through the basicevent service:
//
//	POST /upnp/control/basicevent1
//	SOAPACTION: "urn:Belkin:service:basicevent:1#GetBinaryState"
//
// Insight plugs report BinaryState as "1|1492338954|0|..." and use 8 for
// standby; both count as on.
package wemo
