package mcpserver

func describeCK() string {
	return `Calculates Chidamber-Kemerer object-oriented metrics for Java classes.

USE WHEN:
- Assessing class design quality
- Finding classes that do too much (god classes)
- Identifying tightly coupled components
- Measuring inheritance hierarchy depth

INPUT:
- paths: Java files or directories to scan, or
- code: a Java source snippet analyzed in memory (paths are ignored)

INTERPRETING RESULTS:
- WMC (Weighted Methods per Class): declared methods, one unit each
- DIT (Depth of Inheritance Tree): resolvable ancestors; dit_cycle marks cyclic extends chains
- NOC (Number of Children): direct subclasses
- CBO (Coupling Between Objects): distinct types the class uses
- advanced_cbo: CBO plus classes that use this one, shared relations counted once
- RFC (Response For Class): methods plus distinct invoked names
- LCOM (Lack of Cohesion): method pairs sharing no field minus pairs sharing one, floored at 0
- LCOM > 0: class likely has several responsibilities, consider splitting

SCOPE:
- file (default): each file resolves names on its own
- project: every file shares one registry, so inheritance and inbound coupling cross files

METRICS RETURNED:
- Per class: wmc, dit, noc, cbo, advanced_cbo, rfc, lcom, nom, nof, coupled_classes, children
- Summary: averages, maxima, low cohesion count, inheritance cycles
- Sorted by chosen metric (lcom, wmc, cbo, acbo, rfc, dit, noc, name)`
}
