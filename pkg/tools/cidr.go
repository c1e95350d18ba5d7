/*
 *   Copyright 2025 KiProTek <info@kiprotek.com>
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */
package tools

import (
	"encoding/binary"
	"net"
)

// ContainsIp returns true if the given IP is in the given network
func ContainsIp(netw string, ip string) bool {
	if hosts := CidrHosts(netw); hosts != nil {
		for _, host := range hosts {
			if ip == host {
				return true
			}
		}
	}
	return false
}

// CidrHosts returns a slice of all the IPs in the given network
func CidrHosts(netw string) []string {
	var hosts []string

	_, ipv4Net, err := net.ParseCIDR(netw)
	if err != nil {
		return hosts
	}

	mask := binary.BigEndian.Uint32(ipv4Net.Mask)
	start := binary.BigEndian.Uint32(ipv4Net.IP)
	finish := (start & mask) | (mask ^ 0xffffffff)
	for i := start + 1; i <= finish-1; i++ {
		ip := make(net.IP, 4)
		binary.BigEndian.PutUint32(ip, i)
		hosts = append(hosts, ip.String())
	}
	return hosts
}
